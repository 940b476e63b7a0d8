package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestParseFounderList(t *testing.T) {
	founders := ParseFounderList(" Founder@Example.com , second@example.com ,, ")
	require.Len(t, founders, 2)
	require.True(t, founders.Contains("founder@example.com"))
	require.True(t, founders.Contains("  SECOND@example.com "))
	require.False(t, founders.Contains("third@example.com"))
}

func TestParseFounderList_Empty(t *testing.T) {
	founders := ParseFounderList("")
	require.Empty(t, founders)
	require.False(t, founders.Contains("anyone@example.com"))
}

func TestSubscriptionStatus_IsEntitling(t *testing.T) {
	require.True(t, SubscriptionStatus("active").IsEntitling())
	require.True(t, SubscriptionStatus("trialing").IsEntitling())
	require.True(t, SubscriptionStatus("ACTIVE").IsEntitling())
	require.False(t, SubscriptionStatus("past_due").IsEntitling())
	require.False(t, SubscriptionStatus("canceled").IsEntitling())
	require.False(t, SubscriptionStatus("").IsEntitling())
}

func TestSubscriptionStatus_IsRevoking(t *testing.T) {
	for _, status := range []string{"canceled", "unpaid", "past_due", "incomplete_expired"} {
		require.True(t, SubscriptionStatus(status).IsRevoking(), status)
	}
	require.False(t, SubscriptionStatus("active").IsRevoking())
	require.False(t, SubscriptionStatus("trialing").IsRevoking())
	require.False(t, SubscriptionStatus("incomplete").IsRevoking())
}

func TestClassify_ActiveStatus(t *testing.T) {
	ent := Classify("user@example.com", strPtr("active"), FounderList{})
	require.False(t, ent.Founder)
	require.True(t, ent.Active)
}

func TestClassify_TrialingAnyCase(t *testing.T) {
	ent := Classify("user@example.com", strPtr("Trialing"), FounderList{})
	require.True(t, ent.Active)
}

func TestClassify_NilStatusInactive(t *testing.T) {
	ent := Classify("user@example.com", nil, FounderList{})
	require.False(t, ent.Founder)
	require.False(t, ent.Active)
}

func TestClassify_FounderBypassesStatus(t *testing.T) {
	founders := ParseFounderList("founder@example.com")

	ent := Classify("Founder@Example.com", strPtr("canceled"), founders)
	require.True(t, ent.Founder)
	require.True(t, ent.Active)

	ent = Classify("founder@example.com", nil, founders)
	require.True(t, ent.Founder)
	require.True(t, ent.Active)
}

func TestClassify_LapsedStatusInactive(t *testing.T) {
	for _, status := range []string{"canceled", "unpaid", "past_due", "incomplete_expired", "incomplete"} {
		ent := Classify("user@example.com", strPtr(status), FounderList{})
		require.False(t, ent.Active, status)
	}
}
