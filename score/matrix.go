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

package score

import (
	"bufio"
	"context"
	"io"
	"math"
	"runtime"
	"strconv"
	"strings"

	"github.com/zintix-labs/pairlab/errs"
	"github.com/zintix-labs/pairlab/roster"
	"golang.org/x/sync/errgroup"
)

// Matrix N×N 分數矩陣；m[p][r] 同時代表雙方的好感度。建好後唯讀，可被多個配對共用。
type Matrix [][]float64

// Len 回傳維度
func (m Matrix) Len() int { return len(m) }

// Valid 檢查方陣與分數合法（非負、有限）
func (m Matrix) Valid() error {
	n := len(m)
	for i, row := range m {
		if len(row) != n {
			return errs.Coded(errs.DimensionMismatch, "score row %d has %d entries, want %d", i, len(row), n)
		}
		for j, v := range row {
			if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
				return errs.Coded(errs.InvalidScore, "score[%d][%d] = %v is not a finite non-negative number", i, j, v)
			}
		}
	}
	return nil
}

// Build 以 s 計算所有成員兩兩分數；每列由一個 goroutine 計算，對角線為 0。
func Build(ctx context.Context, members []*roster.Member, s *Scorer) (Matrix, error) {
	if s == nil {
		s = NewScorer()
	}
	if err := s.Valid(); err != nil {
		return nil, err
	}
	n := len(members)
	m := make(Matrix, n)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := 0; i < n; i++ {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			row := make([]float64, n)
			for j := 0; j < n; j++ {
				if i == j {
					continue
				}
				row[j] = s.Score(members[i], members[j])
			}
			m[i] = row
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, errs.Wrap(err, "build score matrix")
	}
	return m, nil
}

// ReadText 讀取以空白分隔的文字矩陣（每行一列，空行略過）。
func ReadText(r io.Reader) (Matrix, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	m := make(Matrix, 0, 16)
	for line := 1; sc.Scan(); line++ {
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		row := make([]float64, len(fields))
		for j, f := range fields {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, errs.Coded(errs.InvalidScore, "line %d col %d: %q is not a number", line, j+1, f)
			}
			row[j] = v
		}
		m = append(m, row)
	}
	if err := sc.Err(); err != nil {
		return nil, errs.WrapWarn(err, "read score matrix")
	}
	if err := m.Valid(); err != nil {
		return nil, err
	}
	return m, nil
}

// WriteText 以 ReadText 可讀回的格式輸出
func (m Matrix) WriteText(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for _, row := range m {
		for j, v := range row {
			if j > 0 {
				bw.WriteByte(' ')
			}
			bw.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}
