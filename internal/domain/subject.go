package domain

// CanonicalSubjects is the ordered subject catalog for the medical specialty
// exam. The order matters: the weak-subjects mode placeholder selects a fixed
// prefix of this list.
var CanonicalSubjects = []string{
	"anatomy",
	"physiology",
	"biochemistry",
	"microbiology",
	"pathology",
	"pharmacology",
	"internal-medicine",
	"pediatrics",
	"general-surgery",
	"obstetrics-gynecology",
}

// WeakSubjectCount is the size of the system-selected subject set in
// weak-subjects mode.
const WeakSubjectCount = 3

// IsKnownSubject reports whether name is part of the canonical catalog.
func IsKnownSubject(name string) bool {
	for _, s := range CanonicalSubjects {
		if s == name {
			return true
		}
	}
	return false
}

// WeakSubjects returns the system-selected subject set for weak-subjects
// mode. This is a fixed prefix of the canonical list, not real per-user
// analytics.
// TODO: derive from historical per-subject accuracy once the history
// aggregator exposes it per user.
func WeakSubjects() []string {
	out := make([]string, WeakSubjectCount)
	copy(out, CanonicalSubjects[:WeakSubjectCount])
	return out
}
