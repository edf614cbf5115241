package playbill

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/backstage/store"
)

func openFixture(t *testing.T, name string) *os.File {
	t.Helper()
	f, err := os.Open("testdata/" + name)
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return f
}

func TestParsePlaybill(t *testing.T) {
	listings, err := ParsePlaybill(openFixture(t, "playbill.html"))
	require.NoError(t, err)

	want := []Listing{
		{Title: "Кармен", Date: "2025-10-13", Time: "19:00", Hall: "Стравинский", Kind: KindPerformance},
		{Title: "Историческая экскурсия по театру", Date: "2025-10-14", Time: "12:00", Hall: "Фойе", Kind: KindExcursion},
		{Title: "Jazzкафе «Осенний вечер»", Date: "2025-10-15", Time: "20:00", Hall: "Шаховской", Kind: KindConcert},
		{Title: "Травиата", Date: "2025-10-16", Time: "19:00", Hall: "Покровский", Kind: KindPerformance},
		{Title: "Золушка", Date: "2025-10-18", Time: "09:30", Hall: "Стравинский", Kind: KindPerformance},
		{Title: "Аида", Date: "2025-10-20", Time: "19:00", Hall: "Стравинский", Kind: KindPerformance},
	}
	assert.Equal(t, want, listings)
}

func TestParsePlaybillEmpty(t *testing.T) {
	listings, err := ParsePlaybill(strings.NewReader("<html><body><p>Сайт на реконструкции</p></body></html>"))
	require.NoError(t, err)
	assert.Empty(t, listings)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		title string
		want  Kind
	}{
		{"Техническая экскурсия", KindExcursion},
		{"Экскурсия «За кулисами»", KindExcursion},
		{"Юбилейный концерт", KindConcert},
		{"Музыкальная гостиная", KindConcert},
		{"Кофейная кантата в кафе", KindConcert},
		{"Борис Годунов", KindPerformance},
	}
	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			assert.Equal(t, tt.want, classify(tt.title))
		})
	}
}

func TestCleanTitle(t *testing.T) {
	assert.Equal(t, "Кармен", cleanTitle("Кармен Премьера"))
	assert.Equal(t, "Травиата", cleanTitle("Травиата  В рамках фестиваля"))
	assert.Equal(t, "Шинель", cleanTitle("Шинель Хореографический спектакль"))
	assert.Equal(t, "Премьера сезона", cleanTitle("Премьера сезона"))
}

func TestListingEventKind(t *testing.T) {
	assert.Equal(t, store.EventKindConcert, Listing{Kind: KindConcert}.EventKind())
	assert.Equal(t, store.EventKindPerformance, Listing{Kind: KindPerformance}.EventKind())
}

func TestParseNews(t *testing.T) {
	items, err := ParseNews(openFixture(t, "news.html"), 5)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"26.09.2025 — Открытие 36-го сезона",
		"20.09.2025 — Премьера «Маддалены» в зале «Стравинский»",
		"05.09.2025 — Гастроли в Казани",
		"01.09.2025 — Набор в детскую студию",
		"28.08.2025 — Новый сайт театра",
	}, items)
}

func TestParseNewsUnlimited(t *testing.T) {
	items, err := ParseNews(openFixture(t, "news.html"), 0)
	require.NoError(t, err)
	assert.Len(t, items, 6)
}
