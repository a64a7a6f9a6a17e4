// Copyright 2025 Zintix Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package roster

import (
	"strings"
	"testing"

	"github.com/zintix-labs/pairlab/errs"
)

const yamlRoster = `
name: tiny
id: 3
filter: orientation
members:
  - name: Ann
    gender: Female
    preferences: [Male]
    grad_year: 2019
    responses: [1, 2, 3]
  - name: Bob
    gender: male
    preferences: [Female, Male]
    grad_year: 2020
    responses: [3, 2, 1]
  - name: Cy
    gender: Non-binary
    preferences: [Female]
    orientation: Bisexual
    grad_year: 2021
    responses: [0, 0, 0]
`

func TestGetRosterByYAML(t *testing.T) {
	r, err := GetRosterByYAML([]byte(yamlRoster))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Name != "tiny" || r.ID != 3 || r.Filter != FilterOrientation || r.Len() != 3 {
		t.Fatalf("unexpected roster: %+v", r)
	}
	ann, bob, cy := r.Members[0], r.Members[1], r.Members[2]
	if ann.Gender != Female || ann.Orientation != Men || ann.ID != 0 {
		t.Fatalf("unexpected ann: %+v", ann)
	}
	if bob.Gender != Male || bob.Orientation != Bisexual || !bob.AcceptsGender(Female) {
		t.Fatalf("unexpected bob: %+v", bob)
	}
	if cy.Gender != Nonbinary || cy.Orientation != Bisexual || cy.AcceptsGender(Male) {
		t.Fatalf("unexpected cy: %+v", cy)
	}
	if g := r.Genders(); g[2] != Nonbinary {
		t.Fatalf("unexpected genders: %v", g)
	}
	if o := r.Orientations(); o[0] != Men {
		t.Fatalf("unexpected orientations: %v", o)
	}
}

func TestGetRosterByJSON(t *testing.T) {
	raw := `{"name":"j","users":[
		{"name":"a","gender":"Female","preferences":["Male"],"gradYear":2019,"responses":[5,5]},
		{"name":"b","gender":"Male","preferences":["Female"],"gradYear":2020,"responses":[4,4]}]}`
	r, err := GetRosterByJSON([]byte(raw))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Filter != FilterScore {
		t.Fatalf("default filter should be score, got %q", r.Filter)
	}
	if r.Members[1].GradYear != 2020 || r.Members[1].Orientation != Women {
		t.Fatalf("unexpected member: %+v", r.Members[1])
	}
}

func TestRosterRejectsRaggedResponses(t *testing.T) {
	raw := `{"name":"bad","users":[
		{"name":"a","gender":"Female","preferences":["Male"],"gradYear":1,"responses":[1,2]},
		{"name":"b","gender":"Male","preferences":["Female"],"gradYear":1,"responses":[1]}]}`
	_, err := GetRosterByJSON([]byte(raw))
	if !errs.Is(err, errs.DimensionMismatch) {
		t.Fatalf("expected dimension mismatch, got %v", err)
	}
}

func TestRosterRejectsUnknownLabel(t *testing.T) {
	raw := strings.Replace(yamlRoster, "gender: male", "gender: mael", 1)
	_, err := GetRosterByYAML([]byte(raw))
	if !errs.Is(err, errs.UnknownCategory) {
		t.Fatalf("expected unknown category, got %v", err)
	}
}

func TestRosterValidatorTags(t *testing.T) {
	cases := map[string]string{
		"no members": "name: x\nmembers: []\n",
		"no name":    "members:\n  - {name: a, gender: Male, preferences: [Female], responses: [1]}\n",
		"bad filter": "name: x\nfilter: all\nmembers:\n  - {name: a, gender: Male, preferences: [Female], responses: [1]}\n",
		"neg resp":   "name: x\nmembers:\n  - {name: a, gender: Male, preferences: [Female], responses: [-1]}\n",
	}
	for name, raw := range cases {
		if _, err := GetRosterByYAML([]byte(raw)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestParseLabels(t *testing.T) {
	if g, err := ParseGender(" FEMALE "); err != nil || g != Female {
		t.Fatalf("ParseGender: %v %v", g, err)
	}
	if o, err := ParseOrientation("bisexual"); err != nil || o != Bisexual {
		t.Fatalf("ParseOrientation: %v %v", o, err)
	}
	_, err := ParseOrientation("Womem")
	e, ok := errs.AsErr(err)
	if !ok || e.Code != errs.UnknownCategory {
		t.Fatalf("expected coded error, got %v", err)
	}
	if !strings.Contains(e.Extra, "Women") {
		t.Fatalf("expected suggestion, got %q", e.Extra)
	}
	if _, err := ParseGender("zzzzzzzzzz"); err == nil {
		t.Fatalf("expected error")
	} else if e, _ := errs.AsErr(err); e.Extra != "" {
		t.Fatalf("far label should carry no suggestion, got %q", e.Extra)
	}
}

func TestPolarity(t *testing.T) {
	if Female.Polarity() != -1 || Nonbinary.Polarity() != 0 || Male.Polarity() != 1 {
		t.Fatalf("gender polarity table broken")
	}
	if Women.Polarity() != -1 || Bisexual.Polarity() != 0 || Men.Polarity() != 1 {
		t.Fatalf("orientation polarity table broken")
	}
	if OrientationOf([]Gender{Male, Female}) != Bisexual || OrientationOf([]Gender{Nonbinary}) != Bisexual {
		t.Fatalf("mixed accepts should derive bisexual")
	}
}

func TestNewRoster(t *testing.T) {
	ms := []*Member{{ID: 9, Responses: []int{1}}, {ID: 7, Responses: []int{2}}}
	r, err := NewRoster("x", ms)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Members[0].ID != 0 || r.Members[1].ID != 1 || ms[0].ID != 9 {
		t.Fatalf("ids should be reassigned on copies")
	}
	if _, err := NewRoster("x", nil); !errs.Is(err, errs.InvalidParam) {
		t.Fatalf("expected invalid param, got %v", err)
	}
	ms[1].Responses = nil
	if _, err := NewRoster("x", ms); !errs.Is(err, errs.DimensionMismatch) {
		t.Fatalf("expected dimension mismatch, got %v", err)
	}
}

func TestMemberSettingMember(t *testing.T) {
	ms := MemberSetting{Name: " Ann ", Gender: "female", Preferences: []string{"Male"}, GradYear: 2024, Responses: []int{1, 2}}
	m, err := ms.Member(5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.ID != 5 || m.Name != "Ann" || m.Gender != Female || m.Orientation != Men || !m.AcceptsGender(Male) {
		t.Fatalf("unexpected member: %+v", m)
	}
	ms.Responses[0] = 9
	if m.Responses[0] != 1 {
		t.Fatalf("responses should be copied")
	}

	cases := []struct {
		name string
		ms   MemberSetting
		code errs.Code
	}{
		{"no preferences", MemberSetting{Name: "x", Gender: "Male"}, errs.CodeNone},
		{"negative response", MemberSetting{Name: "x", Gender: "Male", Preferences: []string{"Female"}, Responses: []int{-1}}, errs.CodeNone},
		{"unknown gender", MemberSetting{Name: "x", Gender: "Mael", Preferences: []string{"Female"}}, errs.UnknownCategory},
		{"unknown orientation", MemberSetting{Name: "x", Gender: "Male", Preferences: []string{"Female"}, Orientation: "Straight"}, errs.UnknownCategory},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := c.ms.Member(0)
			if err == nil {
				t.Fatalf("expected error")
			}
			if c.code != errs.CodeNone && !errs.Is(err, c.code) {
				t.Fatalf("want %s, got %v", c.code, err)
			}
		})
	}
}
