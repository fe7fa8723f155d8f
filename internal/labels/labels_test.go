package labels

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"twstock-dashboard/internal/models"
)

func TestFor(t *testing.T) {
	assert.Equal(t, LangZhTW, For("").Lang)
	assert.Equal(t, LangZhTW, For("zh-TW").Lang)
	assert.Equal(t, LangEn, For("en-US").Lang)
	assert.Equal(t, LangEn, For(" EN ").Lang)
}

func TestEverySetLabelsAllColumnsAndStats(t *testing.T) {
	for _, set := range []*Set{For(LangZhTW), For(LangEn)} {
		for _, c := range models.NumericColumns {
			assert.NotEqual(t, string(c), set.Column(c), "%s: column %s", set.Lang, c)
		}
		for _, s := range models.SummaryStats {
			assert.NotEmpty(t, set.Stat(s), "%s: stat %s", set.Lang, s)
		}
	}
}

func TestZhTWLabels(t *testing.T) {
	set := For(LangZhTW)
	assert.Equal(t, "收盤價(修正後)", set.Column(models.ColAdjClose))
	assert.Equal(t, "第1四分位數", set.Stat(models.StatP25))
	assert.Equal(t, "查無此代碼", set.NotFound)
	assert.Equal(t, "查詢條件錯誤", set.InvalidQuery)
	assert.Equal(t, "unknown", set.Column(models.Column("unknown")))
}
