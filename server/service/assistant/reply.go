package assistant

import (
	"fmt"
	"strings"

	"github.com/hrygo/backstage/plugin/assistant/router"
	"github.com/hrygo/backstage/server/service/schedule"
	"github.com/hrygo/backstage/store"
)

const (
	greetingText  = "Здравствуйте! Я ваш личный менеджер по расписанию. Чем могу помочь?"
	apologyText   = "Произошла ошибка. Попробуйте позже."
	unreachable   = "Ошибка подключения к календарю. Событие не записано, попробуйте позже."
	nothingToAdd  = "Нет мероприятий для добавления."
	newsFailed    = "Не удалось загрузить новости. Попробуйте позже."
	newsEmpty     = "Новости не найдены."
	confirmPrompt = "\nХотите добавить их все в расписание? Напишите «да»."
)

const helpText = "Я помогаю с расписанием, новостями и информацией о дирижёрах. Например:\n" +
	"— Когда я работаю на этой неделе?\n" +
	"— Какие спектакли в театре на следующей неделе?\n" +
	"— Добавь репетицию «В гостях у оперной сказки» 11.10 с 12:00 до 13:00 в Стравинском\n" +
	"— Добавь спектакль «Кармен» 15 октября 19:00–21:30 в Шаховском\n" +
	"— Есть ли новости?\n" +
	"— Кто дирижёр «Кармен»?\n" +
	"— Удалить спектакль «Кармен» 15.10"

const conductorHint = "Уточните, пожалуйста, название спектакля. Например:\n" +
	"— Кто дирижёр «В гостях у оперной сказки»?\n" +
	"— Кто дирижёр «Маддалены»?"

var clarifications = map[router.ClarifyReason]string{
	router.ReasonGeneral:            "Уточните, пожалуйста: во сколько начинается мероприятие? Какой спектакль/репетиция? В каком зале проходит: Стравинский или Шаховской?",
	router.ReasonMissingTitleAdd:    "Укажите название спектакля в кавычках, например: «В гостях у оперной сказки»",
	router.ReasonMissingTitleDelete: "Укажите название спектакля/репетиции в кавычках, например: удалить спектакль «Кармен» 15.10",
	router.ReasonMissingDate:        "Укажите дату (например: 15.10 или 15 октября)",
	router.ReasonMissingDateAndTime: "Укажите дату и время (например: 15.10 с 14:00 до 15:30 или 15 октября 19:00)",
	router.ReasonMissingTime:        "Укажите время (например: 14:00–15:30 или 14:00 до 15:30)",
	router.ReasonUnknownMonth:       "Не удалось распознать месяц. Укажите дату как 15.10 или 15 октября.",
	router.ReasonInvalidDate:        "Некорректная дата.",
	router.ReasonNothingPending:     nothingToAdd,
}

func clarification(reason router.ClarifyReason) string {
	if text, ok := clarifications[reason]; ok {
		return text
	}
	return clarifications[router.ReasonGeneral]
}

// eventLine renders "2025-10-15, 12:00–13:00 — репетиция «Тест» в зале Шаховской."
func eventLine(event *store.Event) string {
	return fmt.Sprintf("%s, %s–%s — %s «%s» в зале %s.",
		event.Date, event.StartTime, event.EndTime, event.Kind.Label(), event.Title, event.Hall)
}

func eventList(events []*store.Event) string {
	var b strings.Builder
	for _, event := range events {
		b.WriteString("- ")
		b.WriteString(eventLine(event))
		b.WriteString("\n")
	}
	return b.String()
}

// weekWords returns the "этой"/"следующей" prefix for a week query.
func weekWords(next bool) string {
	if next {
		return "На следующей неделе"
	}
	return "На этой неделе"
}

func (s *Service) personalWeekReply(result *schedule.WeekResult, next bool) string {
	switch result.Source {
	case schedule.SourceLocal:
		if next {
			return "Ваше расписание на следующей неделе:\n" + eventList(result.Events)
		}
		return "Ваше расписание на этой неделе:\n" + eventList(result.Events)
	case schedule.SourceFeed:
		var b strings.Builder
		if !next {
			b.WriteString("На этой неделе у вас пока нет записей.\nНо на")
		} else {
			b.WriteString("На")
		}
		fmt.Fprintf(&b, " сайте «%s» найдены следующие мероприятия:\n", s.cfg.VenueName)
		b.WriteString(eventList(result.Events))
		if result.Suggested {
			b.WriteString(confirmPrompt)
		}
		return b.String()
	default:
		return weekWords(next) + " мероприятий не найдено."
	}
}

func (s *Service) venueWeekReply(result *schedule.WeekResult, next bool) string {
	if len(result.Events) == 0 {
		return weekWords(next) + " мероприятий в театре не запланировано."
	}
	return fmt.Sprintf("%s в театре «%s» пройдут следующие мероприятия:\n", weekWords(next), s.cfg.VenueName) +
		eventList(result.Events)
}

func (s *Service) addReply(result *schedule.Result) string {
	switch result.Outcome {
	case schedule.OutcomeSynced:
		return "✅ Записано: " + eventLine(result.Event) + "\n" + s.calendarNote()
	case schedule.OutcomeLocalOnly:
		return "✅ Записано: " + eventLine(result.Event) + "\nНе удалось добавить событие в Google Календарь."
	default:
		return unreachable
	}
}

func deleteReply(result *schedule.Result) string {
	switch result.Outcome {
	case schedule.OutcomeSynced:
		return fmt.Sprintf("🗑️ Событие «%s» на %s успешно удалено из расписания и Google Calendar.", result.Event.Title, result.Event.Date)
	case schedule.OutcomeLocalOnly:
		return "✅ Событие удалено из локального расписания, но не удалось удалить из Google Calendar."
	default:
		return fmt.Sprintf("Событие «%s» на %s не найдено в вашем расписании.", result.Event.Title, result.Event.Date)
	}
}

func (s *Service) confirmReply(batch *schedule.BatchResult) string {
	if batch.Count(schedule.OutcomeUnavailable) == len(batch.Results) {
		return unreachable
	}
	written := batch.Written()
	if len(written) == 0 {
		return apologyText
	}

	var b strings.Builder
	b.WriteString("✅ Записано:\n")
	for i, event := range written {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString("- ")
		b.WriteString(eventLine(event))
	}
	b.WriteString("\n")
	if batch.Count(schedule.OutcomeLocalOnly) > 0 {
		b.WriteString("Часть мероприятий не удалось добавить в Google Календарь.")
	} else {
		b.WriteString(s.calendarNote())
	}
	if skipped := len(batch.Results) - len(written); skipped > 0 {
		fmt.Fprintf(&b, "\nНе записано: %d.", skipped)
	}
	return b.String()
}

func (s *Service) calendarNote() string {
	return "Добавлено в Google Календарь с напоминанием за " + reminderPhrase(s.cfg.ReminderMinutes) + "."
}

func (s *Service) newsReply(items []string) string {
	if len(items) == 0 {
		return newsEmpty
	}
	var b strings.Builder
	b.WriteString(s.cfg.NewsHeading)
	b.WriteString(":")
	for i, item := range items {
		fmt.Fprintf(&b, "\n%d. %s", i+1, item)
	}
	return b.String()
}

func conductorReply(cmd router.Command) string {
	if cmd.Conductor == "" {
		return conductorHint
	}
	return fmt.Sprintf("Дирижёром спектакля «%s» является %s.", cmd.Title, cmd.Conductor)
}

// reminderPhrase renders a lead time in Russian: "3 часа", "45 минут".
func reminderPhrase(minutes int) string {
	if minutes > 0 && minutes%60 == 0 {
		hours := minutes / 60
		return fmt.Sprintf("%d %s", hours, plural(hours, "час", "часа", "часов"))
	}
	return fmt.Sprintf("%d %s", minutes, plural(minutes, "минуту", "минуты", "минут"))
}

func plural(n int, one, few, many string) string {
	n %= 100
	if n >= 11 && n <= 14 {
		return many
	}
	switch n % 10 {
	case 1:
		return one
	case 2, 3, 4:
		return few
	default:
		return many
	}
}
