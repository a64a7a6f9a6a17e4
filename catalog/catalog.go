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

// Package catalog 是名冊目錄：記錄有哪些名冊、各自對應哪個檔案，檔案來源一律是扁平的 fs.FS。
package catalog

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"

	"github.com/zintix-labs/pairlab/errs"
	"github.com/zintix-labs/pairlab/roster"
)

var (
	ErrDupID   = errs.NewFatal("duplicate roster id")
	ErrDupName = errs.NewFatal("duplicate roster name")
)

type Entry struct {
	RID      roster.RID
	Name     string
	FileName string
}

// Summary 提供給 GET / 的名冊摘要
type Summary struct {
	RID     roster.RID        `json:"rid"     yaml:"rid"`
	Name    string            `json:"name"    yaml:"name"`
	Members int               `json:"members" yaml:"members"`
	Filter  roster.FilterMode `json:"filter"  yaml:"filter"`
}

type Catalog struct {
	byID   map[roster.RID]Entry
	byName map[string]Entry
	ids    []roster.RID        // 穩定排序
	unique map[string]struct{} // 一個檔案只能對應一份名冊
	files  *multiFS
	frozen bool
}

func New(src ...fs.FS) (*Catalog, error) {
	m, err := newMultiFS(src...)
	if err != nil {
		return nil, errs.Wrap(err, "can not create catalog")
	}
	return &Catalog{
		byID:   map[roster.RID]Entry{},
		byName: map[string]Entry{},
		ids:    make([]roster.RID, 0, 16),
		unique: map[string]struct{}{},
		files:  m,
	}, nil
}

// Register 一次性註冊多筆；任何一筆不合法則全部不寫入。
func (c *Catalog) Register(ents ...Entry) error {
	if c.frozen {
		return errs.NewWarn("can not register when catalog already frozen")
	}
	seenID := map[roster.RID]struct{}{}
	seenName := map[string]struct{}{}
	seenFile := map[string]struct{}{}
	for i := range ents {
		e := &ents[i]
		e.Name = strings.ToLower(strings.TrimSpace(e.Name))
		if e.Name == "" {
			return errs.NewFatal("roster name required")
		}
		if err := validFileName(e.FileName); err != nil {
			return err
		}
		if _, ok := c.files.index[e.FileName]; !ok {
			return errs.Fatalf("roster file not found: %s", e.FileName)
		}
		if _, ok := c.byID[e.RID]; ok {
			return ErrDupID
		}
		if _, ok := seenID[e.RID]; ok {
			return ErrDupID
		}
		if _, ok := c.byName[e.Name]; ok {
			return ErrDupName
		}
		if _, ok := seenName[e.Name]; ok {
			return ErrDupName
		}
		_, used := c.unique[e.FileName]
		_, dup := seenFile[e.FileName]
		if used || dup {
			return errs.Fatalf("duplicate roster file: %s", e.FileName)
		}
		seenID[e.RID] = struct{}{}
		seenName[e.Name] = struct{}{}
		seenFile[e.FileName] = struct{}{}
	}
	for _, e := range ents {
		c.unique[e.FileName] = struct{}{}
		c.byID[e.RID] = e
		c.byName[e.Name] = e
		c.ids = append(c.ids, e.RID)
	}
	slices.Sort(c.ids)
	return nil
}

// Scan 掃描所有來源內的 .yaml/.yml/.json，解析成名冊後以檔案宣告的 id/name 批次註冊。
// 依檔名排序處理；任一檔案失敗就整批不註冊。
func (c *Catalog) Scan() error {
	names := make([]string, 0, len(c.files.index))
	for name := range c.files.index {
		names = append(names, name)
	}
	slices.Sort(names)
	if len(names) == 0 {
		return errs.NewFatal("no roster files found to register")
	}
	ents := make([]Entry, 0, len(names))
	for _, name := range names {
		r, err := c.load(name)
		if err != nil {
			return errs.Wrap(err, fmt.Sprintf("parse roster failed: %s", name))
		}
		ents = append(ents, Entry{RID: r.ID, Name: r.Name, FileName: name})
	}
	return c.Register(ents...)
}

func (c *Catalog) GetByID(id roster.RID) (Entry, bool) {
	e, ok := c.byID[id]
	return e, ok
}

func (c *Catalog) GetByName(name string) (Entry, bool) {
	e, ok := c.byName[strings.ToLower(strings.TrimSpace(name))]
	return e, ok
}

func (c *Catalog) IDs() []roster.RID {
	if len(c.ids) == 0 {
		return nil
	}
	return slices.Clone(c.ids)
}

func (c *Catalog) All() []Entry {
	out := make([]Entry, 0, len(c.ids))
	for _, id := range c.ids {
		out = append(out, c.byID[id])
	}
	return out
}

func (c *Catalog) Freeze()        { c.frozen = true }
func (c *Catalog) IsFrozen() bool { return c.frozen }

// RosterByID 每次呼叫都重新讀檔解析，回傳的名冊由呼叫端獨佔。
func (c *Catalog) RosterByID(id roster.RID) (*roster.Roster, error) {
	e, ok := c.GetByID(id)
	if !ok {
		return nil, errs.Coded(errs.InvalidParam, "rid %d does not exist in catalog", id)
	}
	return c.load(e.FileName)
}

func (c *Catalog) RosterByName(name string) (*roster.Roster, error) {
	e, ok := c.GetByName(name)
	if !ok {
		return nil, errs.Coded(errs.InvalidParam, "roster %q does not exist in catalog", name)
	}
	return c.load(e.FileName)
}

func (c *Catalog) load(name string) (*roster.Roster, error) {
	src, ok := c.files.get(name)
	if !ok {
		return nil, errs.NewWarn("file name does not exist in catalog")
	}
	raw, err := fs.ReadFile(src, name)
	if err != nil {
		return nil, errs.Wrap(err, "catalog read file error")
	}
	return ParseByExt(name, raw)
}

// ParseByExt 依副檔名選擇 YAML 或 JSON 解析
func ParseByExt(filename string, raw []byte) (*roster.Roster, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		return roster.GetRosterByYAML(raw)
	case ".json":
		return roster.GetRosterByJSON(raw)
	default:
		return nil, errs.Fatalf("unsupported roster format: %q", filename)
	}
}

func isRosterFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml", ".json":
		return true
	}
	return false
}

func validFileName(file string) error {
	if file == "" {
		return errs.NewFatal("empty roster filename")
	}
	if strings.ContainsAny(file, `/\:`) {
		return errs.Fatalf("invalid roster filename: %q (must be a basename)", file)
	}
	if !isRosterFile(file) {
		return errs.Fatalf("invalid roster filename: %q (must end with .yaml, .yml, or .json)", file)
	}
	if strings.HasPrefix(file, ".") {
		return errs.Fatalf("invalid roster filename: %q (cannot start with '.')", file)
	}
	return nil
}

// multiFS 把多個扁平來源合併成一個檔名索引；跨來源重名直接失敗。
type multiFS struct {
	src   []fs.FS
	index map[string]int
}

func newMultiFS(src ...fs.FS) (*multiFS, error) {
	if len(src) == 0 {
		return nil, errs.NewFatal("no fs provided")
	}
	m := &multiFS{src: src, index: make(map[string]int, 32)}
	for i, s := range src {
		if s == nil {
			return nil, errs.Fatalf("fs[%d] is nil", i)
		}
		err := fs.WalkDir(s, ".", func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path == "." {
					return nil
				}
				return errs.Fatalf("roster FS must be flat (no subdirectories): %q", path)
			}
			if strings.HasPrefix(path, ".") || !isRosterFile(path) {
				return nil
			}
			if prev, ok := m.index[path]; ok {
				return errs.Fatalf("duplicate roster file %q in fs[%d] and fs[%d]", path, prev, i)
			}
			m.index[path] = i
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *multiFS) get(name string) (fs.FS, bool) {
	if i, ok := m.index[name]; ok {
		return m.src[i], true
	}
	return nil, false
}
