package bootstrap

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/ridoystarlord/cteshape/cte"
	"github.com/ridoystarlord/cteshape/logging"
)

func TestExecuteRequeuesNotReady(t *testing.T) {
	p := NewProcess(logging.Discard())

	var order []string
	fkReady := false
	p.Register("table Order", func(ctx context.Context) error {
		if !fkReady {
			return &cte.MetadataNotReadyError{Entity: "Order", Attribute: "customer"}
		}
		order = append(order, "table Order")
		return nil
	})
	p.Register("fk Order.customer", func(ctx context.Context) error {
		fkReady = true
		order = append(order, "fk Order.customer")
		return nil
	})

	if err := p.Execute(context.Background()); err != nil {
		t.Fatalf("\ngot unexpected error: \"%v\"", err)
	}
	want := []string{"fk Order.customer", "table Order"}
	if !reflect.DeepEqual(order, want) {
		t.Errorf("\ngot order %v, wanted %v", order, want)
	}
	if p.Pending() != 0 {
		t.Errorf("\ngot %d pending callbacks, wanted 0", p.Pending())
	}
}

func TestExecuteStalled(t *testing.T) {
	p := NewProcess(logging.Discard())
	p.Register("ok", func(ctx context.Context) error { return nil })
	p.Register("never", func(ctx context.Context) error {
		return &cte.MetadataNotReadyError{Entity: "Order", Attribute: "customer"}
	})

	err := p.Execute(context.Background())
	var stalled *StalledError
	if !errors.As(err, &stalled) {
		t.Fatalf("\ngot error %v, wanted *StalledError", err)
	}
	if !reflect.DeepEqual(stalled.Callbacks, []string{"never"}) {
		t.Errorf("\ngot stalled callbacks %v, wanted [never]", stalled.Callbacks)
	}
	if !errors.Is(err, cte.ErrMetadataNotReady) {
		t.Errorf("\nstalled error should wrap the not-ready causes")
	}
}

func TestExecuteAbortsOnOtherErrors(t *testing.T) {
	p := NewProcess(logging.Discard())
	boom := errors.New("boom")
	ran := false
	p.Register("fails", func(ctx context.Context) error { return boom })
	p.Register("after", func(ctx context.Context) error {
		ran = true
		return nil
	})

	err := p.Execute(context.Background())
	if !errors.Is(err, boom) {
		t.Errorf("\ngot error %v, wanted boom", err)
	}
	if ran {
		t.Errorf("\ncallback after a hard failure should not run")
	}
}

func TestExecuteCallbacksRegisteredDuringRound(t *testing.T) {
	p := NewProcess(logging.Discard())
	count := 0
	p.Register("parent", func(ctx context.Context) error {
		p.Register("child", func(ctx context.Context) error {
			count++
			return nil
		})
		return nil
	})

	if err := p.Execute(context.Background()); err != nil {
		t.Fatalf("\ngot unexpected error: \"%v\"", err)
	}
	if count != 1 {
		t.Errorf("\ngot %d child runs, wanted 1", count)
	}
}

func TestExecuteCancelled(t *testing.T) {
	p := NewProcess(logging.Discard())
	p.Register("never runs", func(ctx context.Context) error { return nil })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := p.Execute(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("\ngot error %v, wanted context.Canceled", err)
	}
}
