package dedupe_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/okian/lyrics/internal/domain/dedupe"
	. "github.com/smartystreets/goconvey/convey"
)

func TestInMemoryDeduper(t *testing.T) {
	ctx := context.Background()

	Convey("Given a new InMemoryDeduper", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithCapacity(8))

		Convey("Then it starts empty", func() {
			So(d.Size(), ShouldEqual, 0)
		})

		Convey("When a key is recorded twice", func() {
			first := d.SeenAndRecord(ctx, "pop")
			second := d.SeenAndRecord(ctx, "pop")

			Convey("Then only the second call reports it as seen", func() {
				So(first, ShouldBeFalse)
				So(second, ShouldBeTrue)
				So(d.Size(), ShouldEqual, 1)
			})
		})

		Convey("When a key is unrecorded", func() {
			d.SeenAndRecord(ctx, "country")
			d.Unrecord(ctx, "country")

			Convey("Then it can be recorded again", func() {
				So(d.Size(), ShouldEqual, 0)
				So(d.SeenAndRecord(ctx, "country"), ShouldBeFalse)
			})
		})

		Convey("When keys differ only by case", func() {
			So(d.SeenAndRecord(ctx, "Pop"), ShouldBeFalse)
			So(d.SeenAndRecord(ctx, "pop"), ShouldBeFalse)
			So(d.Size(), ShouldEqual, 2)
		})
	})

	Convey("Given a case-folding deduper", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithCaseFolding())

		So(d.SeenAndRecord(ctx, "Hip-Hop"), ShouldBeFalse)
		So(d.SeenAndRecord(ctx, "hip-hop"), ShouldBeTrue)
		d.Unrecord(ctx, "HIP-HOP")
		So(d.Size(), ShouldEqual, 0)
	})

	Convey("Given concurrent writers on the same keys", t, func() {
		d := dedupe.NewInMemoryDeduper()
		var (
			wg    sync.WaitGroup
			mu    sync.Mutex
			fresh int
		)
		for w := 0; w < 8; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := 0; i < 50; i++ {
					if !d.SeenAndRecord(ctx, fmt.Sprintf("k-%d", i)) {
						mu.Lock()
						fresh++
						mu.Unlock()
					}
				}
			}()
		}
		wg.Wait()

		Convey("Then every key is reported new exactly once", func() {
			So(fresh, ShouldEqual, 50)
			So(d.Size(), ShouldEqual, 50)
		})
	})
}
