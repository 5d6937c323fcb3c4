package identity

import "testing"

func TestClientID_RoundTripsThroughString(t *testing.T) {
	id := NewClientID()
	parsed, err := ParseClientID(id.String())
	if err != nil {
		t.Fatalf("ParseClientID: %v", err)
	}
	if parsed != id {
		t.Errorf("got %v, want %v", parsed, id)
	}
}

func TestActorID_Kinds(t *testing.T) {
	grain := ActorID{Kind: ActorKindGrain, Key: "g1"}
	if !grain.IsClientGrain() || grain.IsClientAddressableObject() {
		t.Errorf("grain actor misclassified: %+v", grain)
	}

	cao := ActorID{Kind: ActorKindClientAddressableObject, Key: "c1"}
	if cao.IsClientGrain() || !cao.IsClientAddressableObject() {
		t.Errorf("client-addressable-object actor misclassified: %+v", cao)
	}
}

func TestSiloAddress_None(t *testing.T) {
	if !None.IsNone() {
		t.Fatal("None must report IsNone")
	}
	if identity := SiloAddress("silo-1"); identity.IsNone() {
		t.Fatal("a named address must not report IsNone")
	}
}
