package core

import (
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	cases := []struct {
		in   string
		want Date
		ok   bool
	}{
		{"2024-01-05", NewDate(2024, 1, 5), true},
		{"2024-1-5", NewDate(2024, 1, 5), true},
		{"2024/01/05", NewDate(2024, 1, 5), true},
		{"2024-01-05 13:45:00", NewDate(2024, 1, 5), true},
		{" 2024-12-31 ", NewDate(2024, 12, 31), true},
		{"", Date{}, false},
		{"05/01/2024", Date{}, false},
		{"2024-13-01", Date{}, false},
	}
	for _, tc := range cases {
		got, err := ParseDate(tc.in)
		if tc.ok {
			require.NoError(t, err, tc.in)
			assert.Equal(t, tc.want, got, tc.in)
		} else {
			assert.ErrorIs(t, err, ErrInvalidDate, tc.in)
		}
	}
}

func TestDateString(t *testing.T) {
	assert.Equal(t, "2024-03-09", NewDate(2024, time.March, 9).String())
	assert.Equal(t, "", Date{}.String())
}

func TestParseYen(t *testing.T) {
	cases := []struct {
		in   string
		want Yen
		err  error
	}{
		{"1200", 1200, nil},
		{"1,200", 1200, nil},
		{"¥1,200", 1200, nil},
		{"1200円", 1200, nil},
		{"1200.0", 1200, nil},
		{"0", 0, nil},
		{"12.5", 0, ErrInvalidAmount},
		{"-3", 0, ErrNegativeAmount},
		{"", 0, ErrInvalidAmount},
		{"abc", 0, ErrInvalidAmount},
		{"9223372036854775807", Yen(math.MaxInt64), nil},
		{"9223372036854775808", 0, ErrInvalidAmount},
		{"1e30", 0, ErrInvalidAmount},
		{"-1e30", 0, ErrNegativeAmount},
	}
	for _, tc := range cases {
		got, err := ParseYen(tc.in)
		if tc.err != nil {
			assert.ErrorIs(t, err, tc.err, tc.in)
			continue
		}
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}

func TestYenFormatting(t *testing.T) {
	assert.Equal(t, "¥1,700", Yen(1700).String())
	assert.Equal(t, "¥0", Yen(0).String())
	assert.Equal(t, "1700", Yen(1700).Plain())
}

func TestTransactionValidate(t *testing.T) {
	h := DefaultHousehold()
	good := Transaction{Date: NewDate(2024, 1, 1), AccountName: "Bank", AccountKind: KindChecking, Owner: "joint", Amount: 0}
	require.NoError(t, good.Validate(h))

	noDate := good
	noDate.Date = Date{}
	noName := good
	noName.AccountName = ""
	negative := good
	negative.Amount = -1
	stranger := good
	stranger.Owner = "mallory"

	assert.ErrorIs(t, noDate.Validate(h), ErrInvalidDate)
	assert.ErrorIs(t, noName.Validate(h), ErrEmptyAccountName)
	assert.ErrorIs(t, negative.Validate(h), ErrNegativeAmount)
	assert.ErrorIs(t, stranger.Validate(h), ErrInvalidOwner)
}

func TestAccountKindValid(t *testing.T) {
	for _, k := range AccountKinds {
		assert.True(t, k.Valid(), k)
	}
	assert.False(t, AccountKind("crypto").Valid())
}

func TestTypedErrorsMatchTheirClass(t *testing.T) {
	cfg := fmt.Errorf("load users: %w", &ConfigurationError{Op: "user_config", Err: errors.New("sheet not found")})
	assert.ErrorIs(t, cfg, ErrConfiguration)
	assert.NotErrorIs(t, cfg, ErrStorage)

	st := &StorageError{Op: "save", Err: errors.New("503")}
	assert.ErrorIs(t, st, ErrStorage)

	df := &DataFormatError{Row: 3, Column: "date", Value: "x", Err: ErrInvalidDate}
	assert.ErrorIs(t, df, ErrDataFormat)
	assert.ErrorIs(t, df, ErrInvalidDate)
	assert.Contains(t, df.Error(), "row 3")

	assert.True(t, IsValidation(&EditError{Index: 0, Err: ErrOwnerNotAllowed}))
	assert.False(t, IsValidation(st))
}
