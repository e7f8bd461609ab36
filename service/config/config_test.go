package config

import (
	"os"
	"path/filepath"
	"testing"

	"scrap-quality-service/service/reference"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCatalog(t *testing.T) {
	testCases := []struct {
		name    string
		yaml    string
		wantErr string
		check   func(t *testing.T, c *reference.Catalog)
	}{
		{
			name: "空文件使用内置目录",
			yaml: "",
			check: func(t *testing.T, c *reference.Catalog) {
				assert.Equal(t, reference.DefaultCatalog().EquipmentFamilies, c.EquipmentFamilies)
			},
		},
		{
			name: "覆盖设备族与固定操作员",
			yaml: "equipment_families: [B100HOR]\npinned_operators: [ZZZ]\nalias_prefix: X\n",
			check: func(t *testing.T, c *reference.Catalog) {
				assert.Equal(t, []string{"B100HOR"}, c.EquipmentFamilies)
				assert.True(t, c.IsPinned("ZZZ"))
				assert.Equal(t, "X", c.AliasPrefix)
				assert.Len(t, c.Weekdays, 7)
			},
		},
		{
			name:    "班组数无效",
			yaml:    "team_count: 0\n",
			wantErr: "team_count",
		},
		{
			name:    "星期不足7天",
			yaml:    "weekdays: [Monday, Tuesday]\n",
			wantErr: "weekdays",
		},
		{
			name:    "YAML格式错误",
			yaml:    "equipment_families: [unclosed\n",
			wantErr: "解析目录文件失败",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c, err := ParseCatalog([]byte(tc.yaml))
			if tc.wantErr != "" {
				assert.ErrorContains(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			tc.check(t, c)
		})
	}
}

func TestLoadCatalog(t *testing.T) {
	c, err := LoadCatalog(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, reference.DefaultCatalog().AliasPrefix, c.AliasPrefix)

	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte("default_ceiling: 7.5\n"), 0o600))
	c, err = LoadCatalog(path)
	require.NoError(t, err)
	assert.Equal(t, 7.5, c.DefaultCeiling)
}

func TestConnectionStrings(t *testing.T) {
	db := DatabaseConfig{Host: "db", Port: "5432", User: "u", Password: "p", Name: "scrap", SSLMode: "disable", Schema: "public"}
	assert.Contains(t, db.DSN(), "host=db")
	assert.Contains(t, db.DSN(), "dbname=scrap")

	db.URL = "postgres://u:p@db/scrap"
	assert.Equal(t, "postgres://u:p@db/scrap", db.DSN())

	assert.Equal(t, "cache:6380", RedisConfig{Host: "cache", Port: "6380"}.Addr())
}
