package config_test

import (
	"errors"
	"testing"

	"github.com/okian/squadup/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.StoragePath, convey.ShouldBeEmpty)
			convey.So(cfg.LogFormat, convey.ShouldEqual, "text")
			convey.So(cfg.DraftMaxProposals, convey.ShouldEqual, 20)
			convey.So(cfg.DraftMaxRoster, convey.ShouldEqual, 20)
			convey.So(cfg.DraftMaxRosterThreeTeams, convey.ShouldEqual, 12)
			convey.So(cfg.DraftSubstitution, convey.ShouldBeFalse)
			convey.So(cfg.HeadToHeadLength, convey.ShouldEqual, 5)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("Then broken settings fail validation", func() {
			cfg.DraftMaxRoster = 1
			convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)

			cfg = config.New()
			cfg.LogFormat = "xml"
			convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)

			cfg = config.New()
			cfg.DraftRatingSigma = 0
			convey.So(cfg.Validate(), convey.ShouldNotBeNil)
		})
	})
}
