package fuzzyspec_test

import (
	"testing"

	"zimrewrite/pkg/fuzzyspec"
)

// TestLoadJSON 测试规则源的解析与校验
func TestLoadJSON(t *testing.T) {
	src := `{
  "id": "8f8f2b1c-0db4-4f5a-9a5c-53c5b9f0a8d1",
  "name": "imported",
  "rules": [
    {
      "name": "r1",
      "pattern": "foo(.*)",
      "replace": "$1",
      "scope": "url",
      "tests": [{"input": "foox", "expected": "x"}]
    }
  ]
}`
	cfg, err := fuzzyspec.LoadJSON([]byte(src))
	if err != nil {
		t.Fatalf("LoadJSON 出错: %v", err)
	}
	if cfg.Name != "imported" {
		t.Errorf("名称期望 %q 实际 %q", "imported", cfg.Name)
	}
	if cfg.Version != fuzzyspec.DefaultConfigVersion {
		t.Errorf("缺省版本应补齐，实际 %q", cfg.Version)
	}
	if len(cfg.Rules) != 1 || cfg.Rules[0].GetScope() != fuzzyspec.ScopeURL {
		t.Errorf("规则解析不符: %+v", cfg.Rules)
	}
}

// TestLoadJSON_Errors 测试非法规则源的错误
func TestLoadJSON_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"非 JSON", `{rules: [}`},
		{"缺 rules 数组", `{"id": "8f8f2b1c-0db4-4f5a-9a5c-53c5b9f0a8d1", "name": "x"}`},
		{"rules 不是数组", `{"id": "8f8f2b1c-0db4-4f5a-9a5c-53c5b9f0a8d1", "rules": {"a": 1}}`},
		{"规则缺 pattern", `{"id": "8f8f2b1c-0db4-4f5a-9a5c-53c5b9f0a8d1", "rules": [{"name": "r", "replace": "x", "tests": [{"input": "a", "expected": "a"}]}]}`},
		{"规则缺测试用例", `{"id": "8f8f2b1c-0db4-4f5a-9a5c-53c5b9f0a8d1", "rules": [{"name": "r", "pattern": "a", "replace": "x"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := fuzzyspec.LoadJSON([]byte(tt.src)); err == nil {
				t.Error("期望解析失败但成功了")
			}
		})
	}
}

// TestToJSON_RoundTrip 测试序列化后可重新加载
func TestToJSON_RoundTrip(t *testing.T) {
	cfg := fuzzyspec.DefaultRules()
	data, err := cfg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON 出错: %v", err)
	}
	loaded, err := fuzzyspec.LoadJSON(data)
	if err != nil {
		t.Fatalf("重新加载出错: %v", err)
	}
	if len(loaded.Rules) != len(cfg.Rules) {
		t.Errorf("规则条数期望 %d 实际 %d", len(cfg.Rules), len(loaded.Rules))
	}
	if loaded.Rules[0].Pattern != cfg.Rules[0].Pattern {
		t.Errorf("模式不一致: %q != %q", loaded.Rules[0].Pattern, cfg.Rules[0].Pattern)
	}
}
