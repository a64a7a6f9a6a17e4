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
	"encoding/json"

	"github.com/zintix-labs/pairlab/errs"
	"gopkg.in/yaml.v3"
)

// GetRosterByYAML
// 讀取 YAML 名冊、展開成員並執行檢查後回傳。
func GetRosterByYAML(data []byte) (*Roster, error) {
	r := &Roster{}
	if err := yaml.Unmarshal(data, r); err != nil {
		return nil, errs.WrapWarn(err, "failed to unmarshall yaml")
	}

	if err := r.init(); err != nil {
		return nil, errs.Wrap(err, "roster initialized err")
	}

	return r, nil
}

// GetRosterByJSON
// 讀取 JSON 名冊（與 testdata.json 相同的 users/gradYear 欄位）並執行檢查後回傳
func GetRosterByJSON(data []byte) (*Roster, error) {
	r := &Roster{}
	if err := json.Unmarshal(data, r); err != nil {
		return nil, errs.WrapWarn(err, "can not unmarshall json byte")
	}

	if err := r.init(); err != nil {
		return nil, errs.Wrap(err, "roster initialized err")
	}

	return r, nil
}
