package contracts

import "fmt"

// Group designates the records whose protected attribute equals Value.
type Group struct {
	Attribute string `yaml:"attribute" json:"attribute"`
	Value     string `yaml:"value" json:"value"`
}

// String returns "attribute=value".
func (g Group) String() string {
	return fmt.Sprintf("%s=%s", g.Attribute, g.Value)
}

// Matches reports whether r belongs to the group.
func (g Group) Matches(r Record) bool {
	v, ok := r.Attributes[g.Attribute]
	return ok && v == g.Value
}

// GroupPair is the caller-supplied reference/comparison pair.
// ⭐ 어떤 그룹이 privileged인지는 정책 결정이므로 엔진에 하드코딩하지 않음
type GroupPair struct {
	Privileged   Group `yaml:"privileged" json:"privileged"`
	Unprivileged Group `yaml:"unprivileged" json:"unprivileged"`
}

// Swap returns the pair with the roles exchanged.
func (p GroupPair) Swap() GroupPair {
	return GroupPair{Privileged: p.Unprivileged, Unprivileged: p.Privileged}
}

// Validate checks that both groups are designated and distinct.
func (p GroupPair) Validate() error {
	if p.Privileged.Attribute == "" || p.Unprivileged.Attribute == "" {
		return fmt.Errorf("group attribute is required")
	}
	if p.Privileged == p.Unprivileged {
		return fmt.Errorf("privileged and unprivileged groups must differ (both %s)", p.Privileged)
	}
	return nil
}
