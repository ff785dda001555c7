package paramstore

import (
	"errors"
	"io"
	"math"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"go.viam.com/test"

	"go.viam.com/kinecalc/logging"
	"go.viam.com/kinecalc/referenceframe"
)

var factoryRows = []string{
	"0,170,75,-90,0",
	"-90,0,330,0,0",
	"0,0,0,-90,90",
	"0,-240,0,-90,0",
	"0,0,0,-90,0",
	"180,-40,0,0,0",
}

func TestParseRow(t *testing.T) {
	p, err := ParseRow(" 1.5, 170 ,75,-90, 1e1 ")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, p, test.ShouldResemble, referenceframe.DHParam{Theta: 1.5, D: 170, A: 75, Alpha: -90, Offset: 10})

	for _, tc := range []struct {
		row    string
		reason string
	}{
		{"", "expected 5"},
		{"1,2,3,4", "expected 5"},
		{"1,2,3,4,5,6", "expected 5"},
		{"1,2,x,4,5", `a: "x"`},
		{"1,2,3,,5", `alpha: ""`},
		{"1,2,3,4,NaN", "offset"},
		{"Inf,2,3,4,5", "theta"},
	} {
		_, err := ParseRow(tc.row)
		test.That(t, errors.Is(err, ErrParseFailure), test.ShouldBeTrue)
		test.That(t, err.Error(), test.ShouldContainSubstring, tc.reason)
	}
}

func TestParseRowsRoundTrip(t *testing.T) {
	params, err := ParseRows(factoryRows)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, params, test.ShouldResemble, referenceframe.DefaultDHParams())
	test.That(t, FormatRows(params), test.ShouldResemble, factoryRows)
}

func TestParseRowsNamesEveryBadRow(t *testing.T) {
	rows := append([]string{}, factoryRows...)
	rows[1] = "-90,0,abc,0,0"
	rows[4] = "0,0,0"
	_, err := ParseRows(rows)
	test.That(t, errors.Is(err, ErrParseFailure), test.ShouldBeTrue)
	test.That(t, err.Error(), test.ShouldContainSubstring, "row 2")
	test.That(t, err.Error(), test.ShouldContainSubstring, "row 5")
	test.That(t, err.Error(), test.ShouldNotContainSubstring, "row 1:")

	_, err = ParseRows(factoryRows[:5])
	test.That(t, errors.Is(err, ErrParseFailure), test.ShouldBeTrue)
	test.That(t, err.Error(), test.ShouldContainSubstring, "expected 6 rows but got 5")
}

func TestSetRowsAtomic(t *testing.T) {
	logger, logs := logging.NewObservedTestLogger(t)
	store := New(referenceframe.DefaultDHParams(), logger)
	test.That(t, store.Version(), test.ShouldEqual, 0)

	for bad := 0; bad < referenceframe.DoF; bad++ {
		rows := []string{
			"1,171,76,-91,1",
			"-91,1,331,1,1",
			"1,1,1,-91,91",
			"1,-241,1,-91,1",
			"1,1,1,-91,1",
			"181,-41,1,1,1",
		}
		rows[bad] = "1,2,three,4,5"
		err := store.SetRows(rows)
		test.That(t, errors.Is(err, ErrParseFailure), test.ShouldBeTrue)
		test.That(t, err.Error(), test.ShouldContainSubstring, "row "+string(rune('1'+bad)))
		test.That(t, store.Get(), test.ShouldResemble, referenceframe.DefaultDHParams())
	}
	test.That(t, store.Version(), test.ShouldEqual, 0)
	test.That(t, logs.Len(), test.ShouldEqual, 0)

	rows := append([]string{}, factoryRows...)
	rows[0] = "0,200,75,-90,0"
	test.That(t, store.SetRows(rows), test.ShouldBeNil)
	test.That(t, store.Get()[0].D, test.ShouldEqual, 200.)
	test.That(t, store.DHParams(), test.ShouldResemble, store.Get())
	test.That(t, store.Version(), test.ShouldEqual, 1)
	test.That(t, logs.FilterMessage("DH parameters replaced").Len(), test.ShouldEqual, 1)
}

func TestSet(t *testing.T) {
	store := New(referenceframe.DefaultDHParams(), logging.NewTestLogger(t))

	params := referenceframe.DefaultDHParams()
	params[3].Alpha = math.Inf(1)
	err := store.Set(params)
	test.That(t, errors.Is(err, ErrParseFailure), test.ShouldBeTrue)
	test.That(t, err.Error(), test.ShouldContainSubstring, "row 4")
	test.That(t, store.Get(), test.ShouldResemble, referenceframe.DefaultDHParams())

	params[3].Alpha = -45
	test.That(t, store.Set(params), test.ShouldBeNil)
	test.That(t, store.Get(), test.ShouldResemble, params)
	test.That(t, store.Version(), test.ShouldEqual, 1)

	// The returned table is a copy.
	snapshot := store.Get()
	snapshot[0].D = 1
	test.That(t, store.Get()[0].D, test.ShouldEqual, 170.)
}

func TestLoadFile(t *testing.T) {
	store := New(referenceframe.DefaultDHParams(), logging.NewTestLogger(t))
	dir := t.TempDir()

	good := filepath.Join(dir, "arm.yaml")
	test.That(t, os.WriteFile(good, []byte(`name: longer
dh_params:
  - {theta: 0, d: 200, a: 75, alpha: -90, offset: 0}
  - {theta: -90, d: 0, a: 330, alpha: 0, offset: 0}
  - {theta: 0, d: 0, a: 0, alpha: -90, offset: 90}
  - {theta: 0, d: -240, a: 0, alpha: -90, offset: 0}
  - {theta: 0, d: 0, a: 0, alpha: -90, offset: 0}
  - {theta: 180, d: -40, a: 0, alpha: 0, offset: 0}
joint_limits:
  - {min: -90, max: 90}
  - {min: -132, max: 0}
  - {min: 1, max: 141}
  - {min: -165, max: 165}
  - {min: -105, max: 105}
  - {min: -155, max: 155}
`), 0o600), test.ShouldBeNil)

	model, err := store.LoadFile(good)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, model.Name, test.ShouldEqual, "longer")
	test.That(t, model.Limits[0], test.ShouldResemble, referenceframe.Limit{Min: -90, Max: 90})
	test.That(t, store.Get()[0].D, test.ShouldEqual, 200.)
	test.That(t, store.Version(), test.ShouldEqual, 1)

	short := filepath.Join(dir, "short.yaml")
	test.That(t, os.WriteFile(short, []byte("dh_params:\n  - {theta: 0, d: 1, a: 2, alpha: 3, offset: 4}\n"), 0o600), test.ShouldBeNil)
	_, err = store.LoadFile(short)
	test.That(t, errors.Is(err, ErrParseFailure), test.ShouldBeTrue)
	test.That(t, err.Error(), test.ShouldContainSubstring, "dh_params")

	_, err = store.LoadFile(filepath.Join(dir, "missing.yaml"))
	test.That(t, errors.Is(err, ErrParseFailure), test.ShouldBeTrue)

	test.That(t, store.Get()[0].D, test.ShouldEqual, 200.)
	test.That(t, store.Version(), test.ShouldEqual, 1)
}

func TestConcurrentReadersSeeWholeTables(t *testing.T) {
	store := New(referenceframe.DefaultDHParams(), logging.NewWriterLogger("store", logging.ERROR, io.Discard))
	defaults := referenceframe.DefaultDHParams()
	shifted := defaults
	for i := range shifted {
		shifted[i].D += 1000
	}

	var wg sync.WaitGroup
	var setErr error
	torn := 0
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 200 && setErr == nil; i++ {
			if i%2 == 0 {
				setErr = store.Set(shifted)
			} else {
				setErr = store.Set(defaults)
			}
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			snapshot := store.Get()
			if snapshot != defaults && snapshot != shifted {
				torn++
			}
		}
	}()
	wg.Wait()
	test.That(t, setErr, test.ShouldBeNil)
	test.That(t, torn, test.ShouldEqual, 0)
	test.That(t, store.Version(), test.ShouldEqual, 200)
}
