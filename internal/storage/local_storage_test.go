package storage

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorage_RoundTrip(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	ref, err := s.PutObject(ctx, "payment-proofs/7/receipt.pdf", []byte("%PDF-1.4"), "application/pdf")
	require.NoError(t, err)
	assert.Equal(t, "payment-proofs/7/receipt.pdf", ref)

	data, err := s.GetObject(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.4"), data)

	require.NoError(t, s.DeleteObject(ctx, ref))
	_, err = s.GetObject(ctx, ref)
	assert.ErrorIs(t, err, ErrObjectNotFound)

	assert.NoError(t, s.DeleteObject(ctx, ref))
}

func TestLocalStorage_RejectsEscapingKeys(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	for _, key := range []string{"", "../secret", "a/../../b", "/etc/passwd"} {
		_, err := s.PutObject(context.Background(), key, []byte("x"), "text/plain")
		assert.Error(t, err, "key %q", key)
	}
}

func TestPaymentProofKey(t *testing.T) {
	a := PaymentProofKey(7, "Receipt.JPG")
	b := PaymentProofKey(7, "Receipt.JPG")

	assert.True(t, strings.HasPrefix(a, "payment-proofs/7/"))
	assert.True(t, strings.HasSuffix(a, ".jpg"))
	assert.NotEqual(t, a, b)
}

func TestNew(t *testing.T) {
	_, err := New(Config{Type: "s3", BaseDir: t.TempDir()})
	assert.Error(t, err)

	s, err := New(Config{Type: "local", BaseDir: t.TempDir()})
	require.NoError(t, err)
	assert.NotNil(t, s)
}
