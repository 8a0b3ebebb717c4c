package pattern

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/smsledger/internal/model"
)

const iciciBody = "ICICI Bank Acct XX1234 debited for Rs 500.00 on 01-Jan-24; AMAZON credited. UPI:12345. Call 123 for dispute. SMS BLOCK XYZ to 456"

type fakeRuleStore struct {
	err   error
	rules []model.ExtractionRule
}

func (f *fakeRuleStore) ExtractionRules(_ context.Context) ([]model.ExtractionRule, error) {
	return f.rules, f.err
}

func (f *fakeRuleStore) UpsertExtractionRule(_ context.Context, _ *model.ExtractionRule) error {
	return nil
}

func (f *fakeRuleStore) DeleteExtractionRule(_ context.Context, _ string) error {
	return nil
}

func TestMatcher_Match(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		sender     string
		body       string
		wantRuleID string
		wantFields model.FieldSet
		rules      []model.ExtractionRule
		wantFired  bool
	}{
		{
			name:   "approve rule captures fields",
			sender: "XX-ICICIB",
			body:   iciciBody,
			rules: []model.ExtractionRule{{
				ID:           "icici",
				SenderFilter: "ICICIB",
				Pattern:      `Acct (?P<account_no>\S+) debited for Rs (?P<amount>[\d,.]+) on (?P<date>\S+?);`,
				Outcome:      model.OutcomeApprove,
			}},
			wantFired:  true,
			wantRuleID: "icici",
			wantFields: model.FieldSet{"account_no": "XX1234", "amount": "500.00", "date": "01-Jan-24"},
		},
		{
			name:   "sender filter is case insensitive",
			sender: "xx-icicib",
			body:   iciciBody,
			rules: []model.ExtractionRule{{
				ID:           "icici",
				SenderFilter: "ICICIB",
				Pattern:      `Rs (?P<amount>[\d.]+)`,
				Outcome:      model.OutcomeApprove,
			}},
			wantFired:  true,
			wantRuleID: "icici",
			wantFields: model.FieldSet{"amount": "500.00"},
		},
		{
			name:   "earliest registered rule wins regardless of specificity",
			sender: "XX-ICICIB",
			body:   iciciBody,
			rules: []model.ExtractionRule{
				{ID: "broad", SenderFilter: "", Pattern: `debited`, Outcome: model.OutcomeReject},
				{ID: "specific", SenderFilter: "ICICIB", Pattern: `Rs (?P<amount>[\d.]+)`, Outcome: model.OutcomeApprove},
			},
			wantFired:  true,
			wantRuleID: "broad",
		},
		{
			name:   "sender filter mismatch skips rule",
			sender: "AD-HDFCBK",
			body:   iciciBody,
			rules: []model.ExtractionRule{
				{ID: "icici", SenderFilter: "ICICIB", Pattern: `debited`, Outcome: model.OutcomeReject},
			},
		},
		{
			name:   "invalid pattern is skipped",
			sender: "XX-ICICIB",
			body:   iciciBody,
			rules: []model.ExtractionRule{
				{ID: "bad", SenderFilter: "ICICIB", Pattern: `(?P<amount`, Outcome: model.OutcomeApprove},
				{ID: "good", SenderFilter: "ICICIB", Pattern: `Rs\s+(?P<amount>[\d.]+)`, Outcome: model.OutcomeApprove},
			},
			wantFired:  true,
			wantRuleID: "good",
			wantFields: model.FieldSet{"amount": "500.00"},
		},
		{
			name:   "captures are trimmed",
			sender: "XX-ICICIB",
			body:   iciciBody,
			rules: []model.ExtractionRule{{
				ID:           "trim",
				SenderFilter: "ICICIB",
				Pattern:      `;(?P<merchant>\s*AMAZON\s*)credited`,
				Outcome:      model.OutcomeApprove,
			}},
			wantFired:  true,
			wantRuleID: "trim",
			wantFields: model.FieldSet{"merchant": "AMAZON"},
		},
		{
			name:   "no rules",
			sender: "XX-ICICIB",
			body:   iciciBody,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			matcher := NewMatcher(&fakeRuleStore{rules: tt.rules})
			result, err := matcher.Match(ctx, tt.sender, tt.body)
			require.NoError(t, err)
			assert.Equal(t, tt.wantFired, result.Fired)
			if !tt.wantFired {
				return
			}
			assert.Equal(t, tt.wantRuleID, result.Rule.ID)
			assert.Equal(t, tt.wantFields, result.Fields)
		})
	}
}

func TestMatcher_RejectOutcome(t *testing.T) {
	matcher := NewMatcher(&fakeRuleStore{rules: []model.ExtractionRule{
		{ID: "otp", SenderFilter: "ICICIB", Pattern: `(?P<otp>\d{6}) is your OTP`, Outcome: model.OutcomeReject},
	}})

	result, err := matcher.Match(context.Background(), "XX-ICICIB", "123456 is your OTP")
	require.NoError(t, err)
	assert.True(t, result.Rejected())
	assert.False(t, result.Approved())
	assert.Nil(t, result.Fields)
}

func TestMatcher_StoreError(t *testing.T) {
	matcher := NewMatcher(&fakeRuleStore{err: errors.New("boom")})
	_, err := matcher.Match(context.Background(), "XX-ICICIB", iciciBody)
	assert.Error(t, err)
}

func TestExtractFields(t *testing.T) {
	ok, fields := ExtractFields(`Rs (?P<amount>[\d.]+) on (?P<date>\S+?);`, iciciBody)
	assert.True(t, ok)
	assert.Equal(t, model.FieldSet{"amount": "500.00", "date": "01-Jan-24"}, fields)

	ok, fields = ExtractFields(`credited to (?P<account>\S+)`, iciciBody)
	assert.False(t, ok)
	assert.Empty(t, fields)

	ok, fields = ExtractFields(`(?P<broken`, iciciBody)
	assert.False(t, ok)
	assert.Empty(t, fields)
}

func TestExtractFields_UnmatchedOptionalGroup(t *testing.T) {
	ok, fields := ExtractFields(`Rs (?P<amount>[\d.]+)(?: Bal (?P<balance>[\d.]+))?`, iciciBody)
	assert.True(t, ok)
	assert.Equal(t, "500.00", fields["amount"])
	value, present := fields.Get("balance")
	assert.False(t, present)
	assert.Empty(t, value)
}
