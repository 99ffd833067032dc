package goroutine_test

import (
	"context"
	"testing"
	"time"

	"github.com/ignatzorin/parcel-trip-backend/internal/goroutine"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSafeGo_RecoversPanic(t *testing.T) {
	log, hook := test.NewNullLogger()
	rh := goroutine.NewRecoveryHandler(log)

	done := make(chan struct{})
	rh.SafeGo("boom", func() {
		defer close(done)
		panic("сломалось")
	})
	<-done

	require.Eventually(t, func() bool { return hook.LastEntry() != nil }, time.Second, 10*time.Millisecond)
	entry := hook.LastEntry()
	assert.Equal(t, logrus.ErrorLevel, entry.Level)
	assert.Equal(t, "boom", entry.Data["goroutine"])
}

func TestSafeGoWithContext_PassesContext(t *testing.T) {
	log, _ := test.NewNullLogger()
	rh := goroutine.NewRecoveryHandler(log)

	type key struct{}
	ctx := context.WithValue(context.Background(), key{}, "v")
	got := make(chan interface{}, 1)
	rh.SafeGoWithContext(ctx, "ctx", func(ctx context.Context) {
		got <- ctx.Value(key{})
	})

	select {
	case v := <-got:
		assert.Equal(t, "v", v)
	case <-time.After(time.Second):
		t.Fatal("горутина не выполнилась")
	}
}
