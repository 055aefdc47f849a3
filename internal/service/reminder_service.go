package service

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"taskflow/internal/model"
	"taskflow/internal/repository"
)

// dueSoonWindow is how far ahead a task still counts as "due soon".
const dueSoonWindow = 48 * time.Hour

// ReminderService builds the human-readable summary of a user's overdue
// and upcoming tasks for the daily notification.
type ReminderService struct {
	tasks *repository.TaskRepository
}

func NewReminderService(tasks *repository.TaskRepository) *ReminderService {
	return &ReminderService{tasks: tasks}
}

// DailySummary renders the user's open tasks as HTML-safe text, bucketed
// into overdue, due-soon and the rest.
func (s *ReminderService) DailySummary(ctx context.Context, user model.User, now time.Time) (string, error) {
	tasks, err := s.tasks.ListOpenByUser(ctx, user.ID)
	if err != nil {
		return "", err
	}

	var overdue, dueSoon, open []model.Task
	for _, task := range tasks {
		switch {
		case task.DueAt == nil:
			open = append(open, task)
		case task.DueAt.Before(now):
			overdue = append(overdue, task)
		case task.DueAt.Sub(now) <= dueSoonWindow:
			dueSoon = append(dueSoon, task)
		default:
			open = append(open, task)
		}
	}

	var builder strings.Builder
	builder.WriteString("📋 <b>TaskFlow daily summary</b>\n")
	builder.WriteString(fmt.Sprintf("🗓 %s\n", now.Format("2006-01-02")))

	builder.WriteString("\n⚠️ <b>Overdue</b>\n")
	writeBucket(&builder, overdue, now)

	builder.WriteString("\n⏳ <b>Due soon</b>\n")
	writeBucket(&builder, dueSoon, now)

	builder.WriteString("\n🟢 <b>Open</b>\n")
	writeBucket(&builder, open, now)

	return strings.TrimSpace(builder.String()), nil
}

func writeBucket(builder *strings.Builder, tasks []model.Task, now time.Time) {
	if len(tasks) == 0 {
		builder.WriteString("— nothing here\n")
		return
	}
	for _, task := range tasks {
		builder.WriteString(formatTaskLine(task, now))
	}
}

func formatTaskLine(task model.Task, now time.Time) string {
	var sb strings.Builder

	sb.WriteString("• ")
	sb.WriteString(html.EscapeString(strings.TrimSpace(task.Title)))
	if task.Recur != nil {
		sb.WriteString(" ♻️")
	}

	if task.DueAt != nil {
		due := task.DueAt.In(now.Location())
		if now.After(due) {
			sb.WriteString(fmt.Sprintf(" — was due %s", due.Format("2006-01-02")))
		} else {
			sb.WriteString(fmt.Sprintf(" — due %s", due.Format("2006-01-02")))
		}
	}
	if task.Priority == model.PriorityHigh {
		sb.WriteString(" (high)")
	}

	sb.WriteByte('\n')
	return sb.String()
}
