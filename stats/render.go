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

package stats

import (
	"encoding/json"
	"io"
	"strings"

	"github.com/zintix-labs/pairlab/errs"
	"gopkg.in/yaml.v3"
)

type SimReportRender interface {
	Write(w io.Writer, r *SimReport) error
}

// Json渲染
type JsonSimReportRender struct{}

func (jr *JsonSimReportRender) Write(w io.Writer, r *SimReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// YAML渲染
type YAMLSimReportRender struct{}

func (yr *YAMLSimReportRender) Write(w io.Writer, r *SimReport) error {
	return WriteYAML(w, r)
}

// RenderOf 依格式名稱取得渲染器（json / yaml）
func RenderOf(format string) (SimReportRender, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json":
		return &JsonSimReportRender{}, nil
	case "yaml", "yml":
		return &YAMLSimReportRender{}, nil
	default:
		return nil, errs.Coded(errs.InvalidParam, "unsupported format %q (want json or yaml)", format)
	}
}

// WriteYAML 以可讀格式輸出任意結構：最內層的一維陣列用 flow style [a, b]，外層維度維持展開。
func WriteYAML[T any](w io.Writer, t *T) error {
	var node yaml.Node
	if err := node.Encode(t); err != nil {
		return err
	}
	styleReadableSequences(&node)

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(&node)
}

func styleReadableSequences(n *yaml.Node) {
	if n == nil {
		return
	}
	switch n.Kind {
	case yaml.DocumentNode, yaml.MappingNode:
		for _, c := range n.Content {
			styleReadableSequences(c)
		}
	case yaml.SequenceNode:
		// 含子 sequence 或 mapping 的是外層維度，保持 block
		nested := false
		for _, c := range n.Content {
			if c != nil && (c.Kind == yaml.SequenceNode || c.Kind == yaml.MappingNode) {
				nested = true
			}
			styleReadableSequences(c)
		}
		if !nested {
			n.Style = yaml.FlowStyle
		}
	}
}
