package playbill

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilter(t *testing.T) {
	carmen := Listing{Title: "Кармен", Date: "2025-10-13", Time: "19:00", Hall: "Стравинский", Kind: KindPerformance}
	jazz := Listing{Title: "Jazzкафе", Date: "2025-10-15", Time: "20:00", Hall: "Шаховской", Kind: KindConcert}

	tests := []struct {
		expr string
		want []Listing
	}{
		{`kind == "performance"`, []Listing{carmen}},
		{`hall in ["Шаховской", "Покровский"]`, []Listing{jazz}},
		{`time >= "19:30"`, []Listing{jazz}},
		{`title.startsWith("Кар") || date == "2025-10-15"`, []Listing{carmen, jazz}},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			f, err := NewFilter(tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.want, f.Apply([]Listing{carmen, jazz}))
		})
	}
}

func TestFilterEmptyAcceptsAll(t *testing.T) {
	f, err := NewFilter("")
	require.NoError(t, err)
	assert.Nil(t, f)
	assert.True(t, f.Match(Listing{}))
	assert.Len(t, f.Apply([]Listing{{}, {}}), 2)
}

func TestFilterRejectsInvalid(t *testing.T) {
	for _, expr := range []string{`kind ==`, `title`, `unknown_var == "x"`} {
		_, err := NewFilter(expr)
		assert.Error(t, err, expr)
	}
}

func TestRefresher(t *testing.T) {
	var calls atomic.Int32
	r, err := NewRefresher("*/30 * * * *", time.UTC, time.Second, func(context.Context) error {
		calls.Add(1)
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, r.RunNow(context.Background()))
	assert.Equal(t, int32(1), calls.Load())

	r.Start()
	assert.False(t, r.Next().IsZero())
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	r.Stop(ctx)

	_, err = NewRefresher("every now and then", time.UTC, time.Second, nil)
	assert.Error(t, err)
}
