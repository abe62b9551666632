package banks

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vadiminshakov/aurum/internal/domain"
)

type fakeLister struct {
	banks []domain.BankAccount
	err   error
	gotID string
}

func (f *fakeLister) ListBanks(_ context.Context, uniqueID string) ([]domain.BankAccount, error) {
	f.gotID = uniqueID
	return f.banks, f.err
}

type fakeUser string

func (f fakeUser) UniqueID() (string, error) {
	if f == "" {
		return "", domain.ErrNotAuthenticated
	}
	return string(f), nil
}

var twoBanks = []domain.BankAccount{
	{ID: "b1", BankName: "State Bank of India", AccountNumber: "1234567890"},
	{ID: "b2", BankName: "HDFC Bank", AccountNumber: "9876543210"},
}

func TestSelector_LoadSelectsFirst(t *testing.T) {
	src := &fakeLister{banks: twoBanks}
	s := NewSelector(src, fakeUser("8374670704"), nil)

	assert.Nil(t, s.Selected())

	banks, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, banks, 2)
	assert.Equal(t, "8374670704", src.gotID)
	require.NotNil(t, s.Selected())
	assert.Equal(t, "b1", s.Selected().ID)
}

func TestSelector_SelectAndReload(t *testing.T) {
	src := &fakeLister{banks: twoBanks}
	s := NewSelector(src, fakeUser("u1"), nil)
	_, err := s.Load(context.Background())
	require.NoError(t, err)

	require.NoError(t, s.Select("b2"))
	assert.Equal(t, "b2", s.Selected().ID)

	assert.ErrorIs(t, s.Select("nope"), ErrUnknownBank)
	assert.Equal(t, "b2", s.Selected().ID, "failed select keeps the previous choice")

	_, err = s.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "b2", s.Selected().ID, "reload keeps a selection that still exists")

	src.banks = nil
	_, err = s.Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, s.Selected())
}

func TestSelector_Errors(t *testing.T) {
	_, err := NewSelector(&fakeLister{}, fakeUser(""), nil).Load(context.Background())
	assert.ErrorIs(t, err, domain.ErrNotAuthenticated)

	boom := errors.New("boom")
	_, err = NewSelector(&fakeLister{err: boom}, fakeUser("u1"), nil).Load(context.Background())
	assert.ErrorIs(t, err, boom)
}
