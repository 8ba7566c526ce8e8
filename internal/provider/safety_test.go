package provider

import "testing"

func TestLooksBlocked(t *testing.T) {
	blocked := []string{
		"Response was cut for SAFETY reasons",
		"contenido bloqueado por seguridad",
		"this violates our content policy",
		"Tu solicitud infringe nuestra política de contenido",
		"request BLOCKED",
	}
	for _, s := range blocked {
		if !LooksBlocked(s) {
			t.Errorf("expected %q to look blocked", s)
		}
	}

	clean := []string{
		"here is your poem about autumn",
		"connection refused",
		"internal server error",
	}
	for _, s := range clean {
		if LooksBlocked(s) {
			t.Errorf("expected %q to look clean", s)
		}
	}
}

func TestKeywordClassifierExtraPhrases(t *testing.T) {
	c := NewKeywordClassifier("harm category")
	if !c.Blocked("flagged under HARM CATEGORY 4") {
		t.Error("extra phrase not matched")
	}
	if !c.Blocked("blocked for safety") {
		t.Error("default phrases must survive extension")
	}
	if c.Blocked("all good here") {
		t.Error("clean text misclassified")
	}
}

func TestDefaultClassifierSwappable(t *testing.T) {
	orig := DefaultClassifier
	defer func() { DefaultClassifier = orig }()

	DefaultClassifier = NewKeywordClassifier("verboten")
	if !LooksBlocked("this output is VERBOTEN") {
		t.Error("swapped classifier not consulted")
	}
}
