package models

import "github.com/samber/lo"

const AnonymousName = "Anonymous"

type Account struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
	Bio    string `json:"bio"`
}

// Viewer is the identity every evaluator and coordinator call is made on behalf of.
// Aliases hold other identifiers the server has used for the same account.
type Viewer struct {
	ID      string   `json:"id"`
	Aliases []string `json:"aliases"`
	Name    string   `json:"name"`
	Avatar  string   `json:"avatar"`
	Bio     string   `json:"bio"`
}

func (v Viewer) IDs() []string {
	return lo.Uniq(lo.Filter(append([]string{v.ID}, v.Aliases...), func(item string, _ int) bool {
		return len(item) > 0
	}))
}

func (v Viewer) Is(id string) bool {
	if len(id) == 0 {
		return false
	}
	return lo.Contains(v.IDs(), id)
}

func (v Viewer) IsAnonymous() bool {
	return len(v.ID) == 0
}

func (v Viewer) DisplayName() string {
	return lo.Ternary(len(v.Name) > 0, v.Name, AnonymousName)
}
