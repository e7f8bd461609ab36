/*
 * @module service/models/breakdown
 * @description 缺陷明细类型：解析存储中的明细文本，作为 JSONB 读写
 * @architecture 数据模型层
 * @documentReference dev_docs/scrap_tables.md
 * @stateFlow 明细文本 -> ParseBreakdown -> DefectBreakdown -> 代码解析为标签
 * @rules 只在入口解析一次；格式错误或数量不是非负整数时返回 ErrMalformedBreakdown
 * @dependencies github.com/spf13/cast
 * @refs service/pipeline/normalize.go, service/ingest/csv_loader.go
 */

package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/spf13/cast"
)

// ErrMalformedBreakdown 缺陷明细文本无法解析
var ErrMalformedBreakdown = errors.New("缺陷明细格式错误")

// DefectBreakdown 缺陷代码(或标签) -> 数量
type DefectBreakdown map[string]int

// ParseBreakdown 解析存储中的缺陷明细文本
// 兼容 JSON 以及历史遗留的单引号字典写法，例如 {'d201': 2, 'd205': 1}
func ParseBreakdown(text string) (DefectBreakdown, error) {
	text = strings.TrimSpace(text)
	if text == "" || text == "{}" {
		return DefectBreakdown{}, nil
	}

	var raw map[string]interface{}
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		legacy, ok := legacyToJSON(text)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrMalformedBreakdown, text)
		}
		if err := json.Unmarshal([]byte(legacy), &raw); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrMalformedBreakdown, text)
		}
	}

	result := make(DefectBreakdown, len(raw))
	for code, value := range raw {
		if f, isFloat := value.(float64); isFloat && f != math.Trunc(f) {
			return nil, fmt.Errorf("%w: 代码 %s 的数量不是整数 %v", ErrMalformedBreakdown, code, value)
		}
		count, err := cast.ToIntE(value)
		if err != nil || count < 0 {
			return nil, fmt.Errorf("%w: 代码 %s 的数量无效 %v", ErrMalformedBreakdown, code, value)
		}
		result[strings.TrimSpace(code)] += count
	}
	return result, nil
}

// legacyToJSON 把单引号字符串改写为 JSON 字符串，字符串内部的撇号和双引号保持原义
func legacyToJSON(text string) (string, bool) {
	var out strings.Builder
	out.Grow(len(text) + 8)

	var quote byte
	for i := 0; i < len(text); i++ {
		c := text[i]
		switch {
		case quote == 0:
			if c == '\'' || c == '"' {
				quote = c
				out.WriteByte('"')
				continue
			}
			out.WriteByte(c)
		case c == '\\':
			if i+1 >= len(text) {
				return "", false
			}
			i++
			switch next := text[i]; next {
			case '\'':
				out.WriteByte('\'')
			case '"':
				out.WriteString(`\"`)
			default:
				out.WriteByte('\\')
				out.WriteByte(next)
			}
		case c == quote:
			quote = 0
			out.WriteByte('"')
		case c == '"':
			out.WriteString(`\"`)
		default:
			out.WriteByte(c)
		}
	}
	if quote != 0 {
		return "", false
	}
	return out.String(), true
}

// Total 明细数量合计
func (b DefectBreakdown) Total() int {
	total := 0
	for _, count := range b {
		total += count
	}
	return total
}

// Keys 按字母顺序返回明细键
func (b DefectBreakdown) Keys() []string {
	keys := make([]string, 0, len(b))
	for k := range b {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Scan 实现 Scanner 接口
func (b *DefectBreakdown) Scan(value interface{}) error {
	if value == nil {
		*b = nil
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("类型断言失败: 不是 []byte 或 string")
	}
	return json.Unmarshal(bytes, b)
}

// Value 实现 Valuer 接口
func (b DefectBreakdown) Value() (driver.Value, error) {
	if b == nil {
		return nil, nil
	}
	return json.Marshal(b)
}
