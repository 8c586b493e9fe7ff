package authstate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func Test_Buffer(t *testing.T) {
	t.Run("an issued state redeems exactly once", func(t *testing.T) {
		b := NewBuffer()
		value := b.Issue()
		assert.Len(t, value, 32)
		assert.True(t, b.Redeem(value))
		assert.False(t, b.Redeem(value))
	})

	t.Run("a never-issued state does not redeem", func(t *testing.T) {
		b := NewBuffer()
		b.Issue()
		assert.False(t, b.Redeem("deadbeefdeadbeefdeadbeefdeadbeef"))
	})

	t.Run("an expired state does not redeem", func(t *testing.T) {
		b := NewBuffer()
		issuedAt := time.Date(2023, 11, 12, 19, 30, 0, 0, time.UTC)
		b.now = func() time.Time { return issuedAt }
		value := b.Issue()

		b.now = func() time.Time { return issuedAt.Add(16 * time.Minute) }
		assert.False(t, b.Redeem(value))
	})

	t.Run("redeeming one state leaves other pending states intact", func(t *testing.T) {
		b := NewBuffer()
		first := b.Issue()
		second := b.Issue()
		assert.True(t, b.Redeem(first))
		assert.True(t, b.Redeem(second))
	})
}
