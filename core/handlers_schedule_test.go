package core

import "testing"

func TestHandleUpdSchedRequiresRootGroup(t *testing.T) {
	rootKey := key(1)
	stranger := key(2)
	tc, _ := newStakingTestContext(rootKey, stranger)

	payload := UpdSchedPayload{Producers: []ScheduleEntry{
		{Producer: mustName128("vala"), Key: key(10)},
		{Producer: mustName128("valb"), Key: key(11)},
	}}
	err := HandleUpdSched(tc, &Action{Name: "updsched", Data: payload.Encode()})
	if err == nil {
		t.Fatal("expected updsched to fail without root group signature")
	}

	tc.SigningKeys = []PublicKey{rootKey}
	if err := HandleUpdSched(tc, &Action{Name: "updsched", Data: payload.Encode()}); err != nil {
		t.Fatalf("updsched failed with root group signature: %v", err)
	}
	if !tc.DB.ExistsToken(TokenTypeSchedule, "", scheduleKey) {
		t.Fatal("expected schedule to be stored")
	}
	if tc.Config.ActiveProducerCount != 2 {
		t.Fatalf("expected ActiveProducerCount 2, got %d", tc.Config.ActiveProducerCount)
	}
}

func TestHandleUpdSchedRejectsDuplicateProducer(t *testing.T) {
	rootKey := key(1)
	tc, _ := newStakingTestContext(rootKey, rootKey)

	payload := UpdSchedPayload{Producers: []ScheduleEntry{
		{Producer: mustName128("vala"), Key: key(10)},
		{Producer: mustName128("vala"), Key: key(11)},
	}}
	if err := HandleUpdSched(tc, &Action{Name: "updsched", Data: payload.Encode()}); err == nil {
		t.Fatal("expected updsched to reject a duplicate producer entry")
	}
}
