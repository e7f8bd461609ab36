package reference

import (
	"crypto/md5"
	"encoding/hex"
	"sort"

	"scrap-quality-service/service/models"
)

// Resolver 缺陷代码 -> 缺陷名称
type Resolver struct {
	labels map[string]string
}

// NewResolver 根据缺陷参考表创建解析器
func NewResolver(refs []models.DefectReference) *Resolver {
	labels := make(map[string]string, len(refs))
	for _, ref := range refs {
		if ref.Code == "" {
			continue
		}
		labels[ref.Code] = ref.Description
	}
	return &Resolver{labels: labels}
}

// Resolve 把明细中的代码替换为名称，未登记的代码保持原样；多个代码映射到同一名称时数量相加
func (r *Resolver) Resolve(b models.DefectBreakdown) models.DefectBreakdown {
	out := make(models.DefectBreakdown, len(b))
	for code, count := range b {
		label := code
		if r != nil {
			if l, ok := r.labels[code]; ok && l != "" {
				label = l
			}
		}
		out[label] += count
	}
	return out
}

// Label 单个代码的名称
func (r *Resolver) Label(code string) string {
	if r != nil {
		if l, ok := r.labels[code]; ok && l != "" {
			return l
		}
	}
	return code
}

// Labels 所有缺陷名称（去重排序）
func (r *Resolver) Labels() []string {
	if r == nil {
		return nil
	}
	seen := make(map[string]struct{}, len(r.labels))
	out := make([]string, 0, len(r.labels))
	for _, l := range r.labels {
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}

// Colors 缺陷名称 -> 颜色
func (r *Resolver) Colors() map[string]string {
	colors := make(map[string]string, len(r.labels))
	for _, l := range r.Labels() {
		colors[l] = LabelColor(l)
	}
	return colors
}

// LabelColor 由名称的 md5 前六位生成稳定颜色
func LabelColor(label string) string {
	sum := md5.Sum([]byte(label))
	return "#" + hex.EncodeToString(sum[:])[:6]
}
