package domain

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type note struct{ text string }

func TestHookRegistry_RunsInOrder(t *testing.T) {
	r := NewHookRegistry[*note]()
	r.OnBeforeCreate(func(ctx context.Context, n *note) error { n.text += "a"; return nil })
	r.OnBeforeCreate(func(ctx context.Context, n *note) error { n.text += "b"; return nil })
	r.OnBeforeUpdate(func(ctx context.Context, n *note) error { n.text += "u"; return nil })

	n := &note{}
	assert.NoError(t, r.Run(context.Background(), BeforeCreate, n))
	assert.Equal(t, "ab", n.text)
}

func TestHookRegistry_StopsOnError(t *testing.T) {
	r := NewHookRegistry[*note]()
	boom := errors.New("boom")
	r.OnBeforeUpdate(func(ctx context.Context, n *note) error { return boom })
	r.OnBeforeUpdate(func(ctx context.Context, n *note) error { n.text = "unreachable"; return nil })

	n := &note{}
	assert.ErrorIs(t, r.Run(context.Background(), BeforeUpdate, n), boom)
	assert.Empty(t, n.text)

	var nilRegistry *HookRegistry[*note]
	assert.NoError(t, nilRegistry.Run(context.Background(), BeforeUpdate, n))
}

func TestPage_Normalize(t *testing.T) {
	assert.Equal(t, Page{Limit: DefaultPageLimit}, Page{}.Normalize())
	assert.Equal(t, Page{Limit: MaxPageLimit, Offset: 0}, Page{Limit: 10_000, Offset: -5}.Normalize())
}
