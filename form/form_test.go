package form

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/defistate/barrel-client-go/factory"
	"github.com/defistate/barrel-client-go/protocols/token"
	"github.com/defistate/barrel-client-go/wallet"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	userA = "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"
	userB = "0xfb6916095ca1df60bb79ce92ce3ea74c37c5d359"
)

var fixedNow = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

func testTokens() []token.TokenView {
	return []token.TokenView{
		{Address: common.HexToAddress("0x0000000000000000000000000000000000000001"), Symbol: "AAA"},
		{Address: common.HexToAddress("0x0000000000000000000000000000000000000002"), Symbol: "BBB"},
		{Address: common.HexToAddress("0x0000000000000000000000000000000000000003"), Symbol: "CCC"},
	}
}

type fakeWallet struct {
	mu        sync.Mutex
	networkID uint64
	user      string
}

func (w *fakeWallet) NetworkID() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.networkID
}

func (w *fakeWallet) User() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.user
}

func (w *fakeWallet) IsAddress(s string) bool { return wallet.IsAddress(s) }

func (w *fakeWallet) set(networkID uint64, user string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.networkID = networkID
	w.user = user
}

type staticTokens map[uint64][]token.TokenView

func (s staticTokens) Tokens(networkID uint64) []token.TokenView {
	out := make([]token.TokenView, len(s[networkID]))
	copy(out, s[networkID])
	return out
}

func (s staticTokens) Index(networkID uint64) *token.IndexableTokenSystem {
	return token.NewIndexableTokenSystem(s.Tokens(networkID))
}

type fakeFactory struct {
	mu      sync.Mutex
	calls   []factory.CreateArgs
	err     error
	release chan struct{}
	entered chan struct{}
}

func (f *fakeFactory) Create(ctx context.Context, args factory.CreateArgs) (*types.Transaction, error) {
	f.mu.Lock()
	f.calls = append(f.calls, args)
	f.mu.Unlock()

	if f.entered != nil {
		close(f.entered)
	}
	if f.release != nil {
		<-f.release
	}
	if f.err != nil {
		return nil, f.err
	}
	return types.NewTx(&types.LegacyTx{Nonce: 7}), nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestController(t *testing.T, w *fakeWallet, f *fakeFactory) *Controller {
	t.Helper()
	c, err := NewController(Config{
		Wallet:  w,
		Tokens:  staticTokens{3: testTokens(), 42: testTokens()[1:]},
		Factory: f,
		Logger:  discardLogger(),
		Now:     func() time.Time { return fixedNow },
	})
	require.NoError(t, err)
	return c
}

func validDraft() Draft {
	return NewDraft(userA, testTokens(), fixedNow)
}

func TestNewDraft_Defaults(t *testing.T) {
	d := validDraft()

	assert.Equal(t, testTokens()[0].Address, d.Token)
	assert.Equal(t, 0, d.TokenIndex(testTokens()))
	assert.Equal(t, -1, d.BonusIndex(BonusCandidates(testTokens(), 0)))
	assert.Equal(t, fixedNow.AddDate(1, 0, 0).Unix(), d.ExpiryUnix)
	assert.Equal(t, int64(30), d.LockingPeriodDays)
	assert.Equal(t, userA, d.FeeRecipient)
	assert.Equal(t, 20.0, d.PenaltyPercent)
	assert.Equal(t, 20.0, d.FeePercent)
	assert.Equal(t, int64(1), d.ShareCoefficientN)

	empty := NewDraft("", nil, fixedNow)
	assert.False(t, empty.HasToken())
}

func TestValidate(t *testing.T) {
	w := &fakeWallet{}

	t.Run("ValidDefaults", func(t *testing.T) {
		assert.NoError(t, Validate(validDraft(), w, fixedNow))
	})

	t.Run("PercentRanges", func(t *testing.T) {
		for _, p := range []float64{-0.1, -50, 100.01, 250, math.NaN(), math.Inf(1)} {
			d := validDraft()
			d.FeePercent = p
			assert.ErrorIs(t, Validate(d, w, fixedNow), ErrInvalidFee, "fee %v", p)

			d = validDraft()
			d.PenaltyPercent = p
			assert.ErrorIs(t, Validate(d, w, fixedNow), ErrInvalidPenalty, "penalty %v", p)
		}
		for _, p := range []float64{0, 0.05, 50, 100} {
			d := validDraft()
			d.FeePercent = p
			d.PenaltyPercent = p
			assert.NoError(t, Validate(d, w, fixedNow), "percent %v", p)
		}
	})

	t.Run("Recipient", func(t *testing.T) {
		for _, addr := range []string{userA, userB, "0x0000000000000000000000000000000000000000"} {
			d := validDraft()
			d.FeeRecipient = addr
			assert.NoError(t, Validate(d, w, fixedNow), addr)
		}
		for _, addr := range []string{"", "0x123", "hello", "0x5aaeb6053F3E94C9b9A09f33669435E7Ef1BeAed"} {
			d := validDraft()
			d.FeeRecipient = addr
			assert.ErrorIs(t, Validate(d, w, fixedNow), ErrInvalidFeeRecipient, addr)
		}
	})

	t.Run("LockingWindow", func(t *testing.T) {
		d := validDraft()
		d.LockingPeriodDays = 30
		d.ExpiryUnix = fixedNow.Add(10 * 24 * time.Hour).Unix()
		assert.ErrorIs(t, Validate(d, w, fixedNow), ErrInvalidLockingWindow)

		d.ExpiryUnix = fixedNow.Unix() + 30*secondsPerDay
		assert.ErrorIs(t, Validate(d, w, fixedNow), ErrInvalidLockingWindow, "window opening exactly now is rejected")

		d.ExpiryUnix++
		assert.NoError(t, Validate(d, w, fixedNow))
	})

	t.Run("LockingWindow_HugePeriod", func(t *testing.T) {
		// days*86400 does not fit in an int64 for these
		for _, days := range []int64{201929907334601, math.MaxInt64 / secondsPerDay * 2, math.MaxInt64} {
			d := validDraft()
			d.LockingPeriodDays = days
			assert.ErrorIs(t, Validate(d, w, fixedNow), ErrInvalidLockingWindow, days)
		}
	})

	t.Run("FixedOrder", func(t *testing.T) {
		d := validDraft()
		d.FeePercent = 101
		d.PenaltyPercent = -1
		d.FeeRecipient = "bad"
		d.ExpiryUnix = 0
		assert.ErrorIs(t, Validate(d, w, fixedNow), ErrInvalidFee)

		d.FeePercent = 10
		assert.ErrorIs(t, Validate(d, w, fixedNow), ErrInvalidPenalty)

		d.PenaltyPercent = 10
		assert.ErrorIs(t, Validate(d, w, fixedNow), ErrInvalidFeeRecipient)

		d.FeeRecipient = userA
		assert.ErrorIs(t, Validate(d, w, fixedNow), ErrInvalidLockingWindow)
	})

	t.Run("SupplementaryChecks", func(t *testing.T) {
		d := NewDraft(userA, nil, fixedNow)
		assert.ErrorIs(t, Validate(d, w, fixedNow), ErrNoToken)

		d = validDraft()
		d.ShareCoefficientN = 0
		assert.ErrorIs(t, Validate(d, w, fixedNow), ErrInvalidShareCoefficient)

		d = validDraft()
		d.LockingPeriodDays = -1
		assert.ErrorIs(t, Validate(d, w, fixedNow), ErrInvalidLockingPeriod)
		assert.True(t, IsValidationError(Validate(d, w, fixedNow)))
		assert.False(t, IsValidationError(errors.New("other")))
	})
}

func TestDeriveArgs(t *testing.T) {
	d := validDraft()
	args := DeriveArgs(d)

	assert.Equal(t, testTokens()[0].Address, args.Token)
	assert.Equal(t, "200", args.PenaltyBps.String())
	assert.Equal(t, "200", args.FeeBps.String())
	assert.Equal(t, "2592000", args.LockingPeriodSeconds.String())
	assert.Equal(t, d.ExpiryUnix, args.Expiry.Int64())
	assert.Equal(t, "1", args.ShareCoefficient.String())
	assert.Equal(t, common.HexToAddress(userA), args.FeeRecipient)
	assert.Equal(t, factory.ZeroAddress, args.BonusToken, "no bonus token means the zero address")

	d = Reduce(d, testTokens(), SelectBonusToken{Index: 1})
	assert.Equal(t, testTokens()[2].Address, DeriveArgs(d).BonusToken)
}

func TestToBasisPoints(t *testing.T) {
	tests := []struct {
		percent float64
		want    string
	}{
		{20, "200"},
		{0, "0"},
		{100, "1000"},
		{12.34, "123"},
		{12.35, "124"},
		{0.05, "1"},
		{33.3333, "333"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ToBasisPoints(tt.percent).String(), "percent %v", tt.percent)
	}
}

func TestReduce(t *testing.T) {
	tokens := testTokens()

	t.Run("SelectToken", func(t *testing.T) {
		d := Reduce(validDraft(), tokens, SelectToken{Index: 2})
		assert.Equal(t, 2, d.TokenIndex(tokens))

		same := Reduce(d, tokens, SelectToken{Index: 9})
		assert.Equal(t, d, same, "out-of-range index is ignored")
	})

	t.Run("BonusNeverEqualsToken", func(t *testing.T) {
		d := Reduce(validDraft(), tokens, SelectBonusToken{Index: 0}) // BBB
		require.Equal(t, tokens[1].Address, d.BonusToken)

		d = Reduce(d, tokens, SelectToken{Index: 1})
		assert.Equal(t, tokens[1].Address, d.Token)
		assert.False(t, d.HasBonusToken(), "selecting the bonus token as main clears the bonus")
	})

	t.Run("BonusSelectionSurvivesTokenChange", func(t *testing.T) {
		d := Reduce(validDraft(), tokens, SelectBonusToken{Index: 1}) // CCC
		d = Reduce(d, tokens, SelectToken{Index: 1})                   // BBB
		assert.Equal(t, tokens[2].Address, d.BonusToken)
		assert.Equal(t, 1, d.BonusIndex(BonusCandidates(tokens, 1)))
	})

	t.Run("BonusNone", func(t *testing.T) {
		d := Reduce(validDraft(), tokens, SelectBonusToken{Index: 0})
		d = Reduce(d, tokens, SelectBonusToken{Index: -1})
		assert.False(t, d.HasBonusToken())
	})

	t.Run("WalletChangedOverwritesEditedRecipient", func(t *testing.T) {
		d := Reduce(validDraft(), tokens, SetFeeRecipient{Address: userB})
		d = Reduce(d, tokens, WalletChanged{User: userA})
		assert.Equal(t, userA, d.FeeRecipient)

		d = Reduce(d, tokens, WalletChanged{User: ""})
		assert.Equal(t, userA, d.FeeRecipient, "a disconnect keeps the recipient")
	})

	t.Run("NetworkChanged", func(t *testing.T) {
		d := Reduce(validDraft(), tokens, SelectBonusToken{Index: 0})
		other := tokens[1:]
		d = Reduce(d, other, NetworkChanged{})
		assert.Equal(t, other[0].Address, d.Token)
		assert.False(t, d.HasBonusToken())

		d = Reduce(d, nil, NetworkChanged{})
		assert.False(t, d.HasToken())
	})

	t.Run("NilAction", func(t *testing.T) {
		assert.Equal(t, validDraft(), Reduce(validDraft(), tokens, nil))
	})
}

func TestParseExpiryDate(t *testing.T) {
	unix, err := ParseExpiryDate("2027-03-01")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2027, 3, 1, 8, 0, 0, 0, time.UTC).Unix(), unix)
	assert.Equal(t, "2027-03-01", FormatExpiryDate(unix))

	_, err = ParseExpiryDate("01/03/2027")
	assert.Error(t, err)
}

func TestController_SetField(t *testing.T) {
	c := newTestController(t, &fakeWallet{networkID: 3, user: userA}, &fakeFactory{})

	require.NoError(t, c.SetField(FieldToken, "ccc"))
	require.NoError(t, c.SetField(FieldBonusToken, "AAA"))
	require.NoError(t, c.SetField(FieldExpiry, "2028-01-01"))
	require.NoError(t, c.SetField(FieldLockingPeriodDays, "7"))
	require.NoError(t, c.SetField(FieldFeeRecipient, userB))
	require.NoError(t, c.SetField(FieldPenaltyPercent, "12.5"))
	require.NoError(t, c.SetField(FieldFeePercent, "5"))
	require.NoError(t, c.SetField(FieldShareCoefficient, "2"))

	v := c.View()
	tokens := testTokens()
	assert.Equal(t, tokens[2].Address, v.Draft.Token)
	assert.Equal(t, tokens[0].Address, v.Draft.BonusToken)
	assert.Equal(t, "2028-01-01", FormatExpiryDate(v.Draft.ExpiryUnix))
	assert.Equal(t, int64(7), v.Draft.LockingPeriodDays)
	assert.Equal(t, userB, v.Draft.FeeRecipient)
	assert.Equal(t, 12.5, v.Draft.PenaltyPercent)
	assert.Equal(t, 5.0, v.Draft.FeePercent)
	assert.Equal(t, int64(2), v.Draft.ShareCoefficientN)
	assert.NoError(t, v.Err)
	assert.Len(t, v.BonusCandidates, 2)
	assert.Len(t, v.Summary(), len(Fields))

	before := c.View().Draft
	assert.Error(t, c.SetField(FieldShareCoefficient, "abc"))
	assert.Error(t, c.SetField(FieldToken, "7"))
	assert.Error(t, c.SetField(FieldBonusToken, "CCC"), "the selected token is not a candidate")
	assert.Error(t, c.SetField(Field("colour"), "red"))
	assert.Equal(t, before, c.View().Draft, "failed parses leave the draft unchanged")

	require.NoError(t, c.SetField(FieldBonusToken, "none"))
	assert.False(t, c.View().Draft.HasBonusToken())
}

func TestController_Observers(t *testing.T) {
	c := newTestController(t, &fakeWallet{networkID: 3, user: userA}, &fakeFactory{})

	var views []View
	c.Subscribe(func(v View) { views = append(views, v) })

	require.NoError(t, c.SetField(FieldFeePercent, "150"))
	require.Len(t, views, 1)
	assert.ErrorIs(t, views[0].Err, ErrInvalidFee, "derived error is recomputed after each mutation")

	c.Dispatch(SetFeePercent{Percent: 10})
	require.Len(t, views, 2)
	assert.NoError(t, views[1].Err)
}

func TestController_SyncWallet(t *testing.T) {
	w := &fakeWallet{networkID: 3, user: userA}
	c := newTestController(t, w, &fakeFactory{})

	require.NoError(t, c.SetField(FieldFeeRecipient, userB))
	require.NoError(t, c.SetField(FieldBonusToken, "1"))

	c.SyncWallet()
	assert.Equal(t, userB, c.View().Draft.FeeRecipient, "no change, nothing reset")

	w.set(42, "0x0000000000000000000000000000000000000abc")
	c.SyncWallet()

	v := c.View()
	assert.Equal(t, "0x0000000000000000000000000000000000000abc", v.Draft.FeeRecipient)
	assert.Equal(t, testTokens()[1].Address, v.Draft.Token)
	assert.False(t, v.Draft.HasBonusToken())
	assert.Len(t, v.Tokens, 2)
}

func TestController_Submit(t *testing.T) {
	t.Run("Success_ResetsFlag", func(t *testing.T) {
		f := &fakeFactory{}
		c := newTestController(t, &fakeWallet{networkID: 3, user: userA}, f)

		var flags []bool
		c.Subscribe(func(v View) { flags = append(flags, v.Submitting) })

		tx, err := c.Submit(context.Background())
		require.NoError(t, err)
		require.NotNil(t, tx)
		assert.False(t, c.Submitting())
		assert.Equal(t, []bool{true, false}, flags)

		require.Len(t, f.calls, 1)
		assert.Equal(t, []string{
			testTokens()[0].Address.Hex(),
			"200",
			"2592000",
			DeriveArgs(c.View().Draft).Expiry.String(),
			"200",
			"1",
			common.HexToAddress(userA).Hex(),
			factory.ZeroAddress.Hex(),
		}, f.calls[0].Strings())
	})

	t.Run("Failure_ResetsFlagAndPropagates", func(t *testing.T) {
		sendErr := errors.New("transaction rejected")
		f := &fakeFactory{err: sendErr}
		c := newTestController(t, &fakeWallet{networkID: 3, user: userA}, f)
		before := c.View().Draft

		_, err := c.Submit(context.Background())
		assert.ErrorIs(t, err, sendErr)
		assert.False(t, c.Submitting())
		assert.Equal(t, before, c.View().Draft, "a failed submission keeps the draft")

		_, err = c.Submit(context.Background())
		assert.ErrorIs(t, err, sendErr)
		assert.Len(t, f.calls, 2, "no automatic retry, but manual retry works")
	})

	t.Run("InvalidDraftBlocks", func(t *testing.T) {
		f := &fakeFactory{}
		c := newTestController(t, &fakeWallet{networkID: 3, user: ""}, f)

		_, err := c.Submit(context.Background())
		assert.ErrorIs(t, err, ErrInvalidFeeRecipient)
		assert.Empty(t, f.calls)
		assert.False(t, c.Submitting())
	})

	t.Run("HugeLockingPeriodBlocks", func(t *testing.T) {
		f := &fakeFactory{}
		c := newTestController(t, &fakeWallet{networkID: 3, user: userA}, f)

		require.NoError(t, c.SetField(FieldLockingPeriodDays, "201929907334601"))
		assert.ErrorIs(t, c.View().Err, ErrInvalidLockingWindow)

		_, err := c.Submit(context.Background())
		assert.ErrorIs(t, err, ErrInvalidLockingWindow)
		assert.Empty(t, f.calls)
		assert.False(t, c.Submitting())
	})

	t.Run("SecondSubmitWhileInFlight", func(t *testing.T) {
		f := &fakeFactory{release: make(chan struct{}), entered: make(chan struct{})}
		c := newTestController(t, &fakeWallet{networkID: 3, user: userA}, f)

		done := make(chan error, 1)
		go func() {
			_, err := c.Submit(context.Background())
			done <- err
		}()

		<-f.entered
		assert.True(t, c.Submitting())
		_, err := c.Submit(context.Background())
		assert.ErrorIs(t, err, ErrSubmitInProgress)

		close(f.release)
		require.NoError(t, <-done)
		assert.False(t, c.Submitting())
	})
}
