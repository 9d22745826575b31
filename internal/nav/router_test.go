package nav

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

type recorder struct {
	seen []string
	cont bool
}

func (r *recorder) handle(_ context.Context, e Event) bool {
	r.seen = append(r.seen, e.Identity)
	return r.cont
}

func TestRouter_ObserveRoutesImmediately(t *testing.T) {
	r := New(WithLocation("/usage"))
	rec := &recorder{cont: true}
	r.Observe(context.Background(), rec.handle)
	assert.Equal(t, []string{"/usage"}, rec.seen)
}

func TestRouter_NavigateInOrder(t *testing.T) {
	r := New()
	ctx := context.Background()
	var order []string
	r.Observe(ctx, func(_ context.Context, e Event) bool { order = append(order, "a:"+e.Identity); return true })
	r.Observe(ctx, func(_ context.Context, e Event) bool { order = append(order, "b:"+e.Identity); return true })
	order = nil

	n := r.Navigate(ctx, "/design/")
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"a:/design", "b:/design"}, order)
	assert.Equal(t, "/design", r.Location())
}

func TestRouter_FalseHaltsPropagation(t *testing.T) {
	r := New()
	ctx := context.Background()
	first := &recorder{cont: false}
	second := &recorder{cont: true}
	r.Observe(ctx, first.handle)
	r.Observe(ctx, second.handle)

	n := r.Navigate(ctx, "/splash")
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"/", "/splash"}, first.seen)
	assert.Equal(t, []string{"/"}, second.seen, "only the immediate route on Observe")
}

func TestRouter_Unsubscribe(t *testing.T) {
	r := New()
	ctx := context.Background()
	rec := &recorder{cont: true}
	unsubscribe := r.Observe(ctx, rec.handle)
	unsubscribe()
	unsubscribe()
	assert.Equal(t, 0, r.Navigate(ctx, "/a"))
	assert.Equal(t, []string{"/"}, rec.seen)
}

func TestRouter_NavigateRejectsRelative(t *testing.T) {
	r := New()
	assert.Equal(t, 0, r.Navigate(context.Background(), "relative"))
	assert.Equal(t, "/", r.Location())
}

func TestRouter_Follow(t *testing.T) {
	tests := []struct {
		href    string
		handled bool
		want    string
	}{
		{"/usage", true, "/usage"},
		{"/Getting%20Started", true, "/Getting Started"},
		{"/design?tab=2#top", true, "/design"},
		{"sub", true, "/here/sub"},
		{"https://github.com/makerlab/lifecards", false, "/here"},
		{"mailto:someone@example.com", false, "/here"},
		{"ftp:thing", false, "/here"},
		{"", false, "/here"},
	}
	for _, tt := range tests {
		t.Run(tt.href, func(t *testing.T) {
			r := New(WithLocation("/here"))
			assert.Equal(t, tt.handled, r.Follow(context.Background(), tt.href))
			assert.Equal(t, tt.want, r.Location())
		})
	}
}
