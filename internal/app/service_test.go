package service_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/groupscholar/earlywarn/internal/adapters/repository"
	service "github.com/groupscholar/earlywarn/internal/app"
	"github.com/groupscholar/earlywarn/internal/config"
	"github.com/groupscholar/earlywarn/internal/domain/decay"
	"github.com/groupscholar/earlywarn/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	_ = logger.Init()
}

// testToday pins "today" just after the seed signal dates.
var testToday = time.Date(2026, 2, 15, 9, 30, 0, 0, time.UTC)

func newTestService(t *testing.T, opts ...service.Option) *service.Service {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	store := repository.NewGormStore(db)
	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	opts = append([]service.Option{
		service.WithClock(func() time.Time { return testToday }),
	}, opts...)
	return service.New(store, opts...)
}

func writeImportFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "signals.csv")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write import fixture: %v", err)
	}
	return path
}

func TestServiceImportAndScore(t *testing.T) {
	ctx := context.Background()

	Convey("Given a seeded service and an import file", t, func() {
		svc := newTestService(t)
		So(svc.Seed(ctx), ShouldBeNil)

		path := writeImportFile(t, "full_name,email,cohort,signal_type,severity,note,occurred_at\n"+
			"Noah Kim,noah.kim@groupscholar.com,2026,attendance,5,no-show twice this week,2026-02-14\n"+
			"Avery Lee,avery.lee@groupscholar.com,2026,engagement,2,short check-in,2026-02-10\n")

		summary, err := svc.Import(ctx, path)
		So(err, ShouldBeNil)
		So(summary.Processed, ShouldEqual, 2)
		So(summary.Invalid, ShouldEqual, 0)

		Convey("When the same file is imported again", func() {
			again, err := svc.Import(ctx, path)

			Convey("Then every row is a duplicate", func() {
				So(err, ShouldBeNil)
				So(again.Inserted, ShouldEqual, 0)
				So(again.Duplicates, ShouldEqual, 2)
			})
		})

		Convey("When the cohort is scored", func() {
			scored, err := svc.ScoreCohort(ctx, "2026", 30)

			Convey("Then all cohort members come back ranked by score", func() {
				So(err, ShouldBeNil)
				So(scored, ShouldHaveLength, 3)
				So(scored[0].FullName, ShouldEqual, "Noah Kim")
				for i := 1; i < len(scored); i++ {
					So(scored[i-1].Score, ShouldBeGreaterThanOrEqualTo, scored[i].Score)
				}
			})
		})

		Convey("When a single scholar is scored by email", func() {
			scored, err := svc.ScoreScholar(ctx, "jules.moreno@groupscholar.com", 30)

			Convey("Then only that scholar is returned", func() {
				So(err, ShouldBeNil)
				So(scored, ShouldHaveLength, 1)
				So(scored[0].Email, ShouldEqual, "jules.moreno@groupscholar.com")
				So(scored[0].Score, ShouldBeGreaterThan, 0)
			})
		})

		Convey("When an unknown email is scored", func() {
			scored, err := svc.ScoreScholar(ctx, "nobody@groupscholar.com", 30)

			Convey("Then the result is empty without an error", func() {
				So(err, ShouldBeNil)
				So(scored, ShouldBeEmpty)
			})
		})
	})
}

func TestServiceReport(t *testing.T) {
	ctx := context.Background()

	Convey("Given a seeded service", t, func() {
		svc := newTestService(t, service.WithTopRiskLimit(2))
		So(svc.Seed(ctx), ShouldBeNil)

		Convey("When the cohort report is rendered", func() {
			out, err := svc.ReportCohort(ctx, "2026", 30)

			Convey("Then it carries every section and respects the limit", func() {
				So(err, ShouldBeNil)
				So(out, ShouldContainSubstring, "# Cohort Early Warning Report")
				So(out, ShouldContainSubstring, "Generated for 2026")
				So(out, ShouldContainSubstring, "## Signal Mix")
				So(out, ShouldContainSubstring, "## Top Risk Scholars")
				So(out, ShouldContainSubstring, "## Recent Signal Notes")
				So(out, ShouldContainSubstring, "## Weekly Signal Trend")
				So(out, ShouldContainSubstring, "Avery Lee")
				So(out, ShouldNotContainSubstring, "Jules Moreno")
			})

			Convey("Then rendering again yields the identical document", func() {
				again, err := svc.ReportCohort(ctx, "2026", 30)
				So(err, ShouldBeNil)
				So(again, ShouldEqual, out)
			})
		})

		Convey("When a single-scholar report is rendered", func() {
			out, err := svc.ReportScholar(ctx, "jules.moreno@groupscholar.com", 30)

			Convey("Then it scopes to that scholar", func() {
				So(err, ShouldBeNil)
				So(out, ShouldContainSubstring, "jules.moreno@groupscholar.com")
				So(out, ShouldContainSubstring, "Jules Moreno")
				So(out, ShouldNotContainSubstring, "Avery Lee")
			})
		})

		Convey("When the email is unknown", func() {
			_, err := svc.ReportScholar(ctx, "nobody@groupscholar.com", 30)

			Convey("Then the report fails with not found", func() {
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})
		})
	})
}

func TestDecayFromConfig(t *testing.T) {
	Convey("Given loaded configuration", t, func() {
		cases := []struct {
			curve  string
			age    int
			weight float64
		}{
			{config.DecayLinear, 0, 1.0},
			{config.DecayTiered, 10, 0.7},
			{config.DecayExponential, 14, 0.5},
		}

		for _, tc := range cases {
			tc := tc
			Convey(fmt.Sprintf("When the curve is %q", tc.curve), func() {
				cfg := config.New()
				cfg.DecayCurve = tc.curve

				strategy := service.DecayFromConfig(cfg)

				Convey("Then the matching strategy is built", func() {
					So(strategy.Weight(tc.age, 30), ShouldAlmostEqual, tc.weight, 1e-9)
				})
			})
		}
	})

	Convey("Given an exponential curve with a floor", t, func() {
		strategy := decay.Exponential(7, 0.25)

		Convey("Then old signals never drop below the floor", func() {
			So(strategy.Weight(90, 365), ShouldEqual, 0.25)
		})
	})
}
