package contact

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func validValues() Values {
	return Values{
		Name:    "Ada Lovelace",
		Email:   "ada@example.com",
		Subject: "Analytical engine",
		Message: "I would like to talk about notes on the engine.",
	}
}

func TestValidateAcceptsWellFormedInput(t *testing.T) {
	t.Parallel()

	res := Validate(validValues())
	require.True(t, res.Valid)
	require.Empty(t, res.Errors)
}

func TestValidateCollectsEveryFailure(t *testing.T) {
	t.Parallel()

	res := Validate(Values{Name: "   ", Email: "nope", Subject: "\t", Message: " short "})
	require.False(t, res.Valid)
	want := Errors{
		FieldName:    MsgName,
		FieldEmail:   MsgEmail,
		FieldSubject: MsgSubject,
		FieldMessage: MsgMessage,
	}
	if diff := cmp.Diff(want, res.Errors); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}
}

func TestValidateShortMessage(t *testing.T) {
	t.Parallel()

	v := validValues()
	v.Message = "short"
	res := Validate(v)
	require.False(t, res.Valid)
	require.Equal(t, MsgMessage, res.Errors[FieldMessage])
	require.Len(t, res.Errors, 1)
}

func TestValidateMessageLengthIsMeasuredAfterTrim(t *testing.T) {
	t.Parallel()

	v := validValues()
	v.Message = "   123456789   "
	require.Equal(t, MsgMessage, Validate(v).Errors[FieldMessage])

	v.Message = "  1234567890  "
	require.True(t, Validate(v).Valid)
}

func TestValidateMessageLengthCountsRunes(t *testing.T) {
	t.Parallel()

	v := validValues()
	v.Message = "😀😀😀😀😀"
	require.Equal(t, MsgMessage, Validate(v).Errors[FieldMessage], "five emoji are five characters")

	v.Message = "😀😀😀😀😀😀😀😀😀😀"
	require.True(t, Validate(v).Valid)

	v.Message = "ééééééééé"
	require.Equal(t, MsgMessage, Validate(v).Errors[FieldMessage], "multi-byte runes are not counted as bytes")
}

func TestValidateEmailPattern(t *testing.T) {
	t.Parallel()

	cases := []struct {
		email string
		ok    bool
	}{
		{"a@b.co", true},
		{"first.last+tag@sub.example.org", true},
		{"not-an-email", false},
		{"a@b", false},
		{"@b.co", false},
		{"a@.co", false},
		{"a@b@c.de", true}, // permissive: "@" is just another non-space rune
		{"a b@c.de", false},
		{" a@b.co", false},
		{"a@b.co ", false},
		{"", false},
	}
	for _, tc := range cases {
		v := validValues()
		v.Email = tc.email
		res := Validate(v)
		require.Equal(t, !tc.ok, res.Errors.Has(FieldEmail), "email %q", tc.email)
		if !tc.ok {
			require.Equal(t, MsgEmail, res.Errors[FieldEmail])
		}
	}
}

func TestValidateHoneypotOverwritesMessageError(t *testing.T) {
	t.Parallel()

	v := validValues()
	v.Company = "Acme Bots"
	res := Validate(v)
	require.False(t, res.Valid)
	require.Equal(t, Errors{FieldMessage: MsgSpamCheck}, res.Errors)

	// a short message is replaced, not joined
	v.Message = "hi"
	res = Validate(v)
	require.Equal(t, MsgSpamCheck, res.Errors[FieldMessage])
	require.Len(t, res.Errors, 1)
}

func TestValidateHoneypotKeepsOtherFieldErrors(t *testing.T) {
	t.Parallel()

	res := Validate(Values{Company: "x"})
	require.Equal(t, MsgName, res.Errors[FieldName])
	require.Equal(t, MsgEmail, res.Errors[FieldEmail])
	require.Equal(t, MsgSubject, res.Errors[FieldSubject])
	require.Equal(t, MsgSpamCheck, res.Errors[FieldMessage])
}

func TestValidateWhitespaceOnlyHoneypotIsIgnored(t *testing.T) {
	t.Parallel()

	v := validValues()
	v.Company = "  \n "
	require.True(t, Validate(v).Valid)
}
