// Package queue defines message payloads exchanged over the message broker.
package queue

import (
    "time"

    "github.com/google/uuid"
)

// NotificationQueue is the durable queue carrying notification jobs.
const NotificationQueue = "alerts.notify"

// NotificationJob asks the consumer to deliver one alert by email and SMS.
// It carries the rendered text and recipients so the consumer never needs
// the primary database.
type NotificationJob struct {
    JobID     string   `json:"job_id"`
    AlertID   uint64   `json:"alert_id"`
    EventID   uint64   `json:"event_id"`
    Subject   string   `json:"subject"`
    Body      string   `json:"body"`
    Emails    []string `json:"emails"`
    Phones    []string `json:"phones"`
    CreatedAt string   `json:"created_at"`
}

// NewNotificationJob stamps a job with a fresh id and creation time.
func NewNotificationJob(alertID, eventID uint64, subject, body string, emails, phones []string, at time.Time) NotificationJob {
    return NotificationJob{
        JobID:     uuid.NewString(),
        AlertID:   alertID,
        EventID:   eventID,
        Subject:   subject,
        Body:      body,
        Emails:    emails,
        Phones:    phones,
        CreatedAt: at.UTC().Format(time.RFC3339),
    }
}
