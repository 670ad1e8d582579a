package services

import (
	"log"
	"sync"
	"time"
)

const (
	failedLoginWindow    = 10 * time.Minute
	failedLoginThreshold = 5
	alertCooldown        = time.Hour
	maxAlerts            = 100
)

// SecurityEventMonitor watches failed logins per IP address. Account lockout
// covers a single account; this catches one address trying many accounts.
type SecurityEventMonitor struct {
	mu           sync.Mutex
	failedLogins map[string][]time.Time
	alertedIPs   map[string]time.Time
	alerts       []SecurityAlert
	now          func() time.Time
}

// SecurityAlert is a triggered alert, newest first in GetRecentAlerts
type SecurityAlert struct {
	Timestamp time.Time
	IP        string
	Reason    string
	Level     string // WARNING, CRITICAL
}

// Monitor is the process-wide monitor used by Authenticate
var Monitor = NewSecurityMonitor()

func NewSecurityMonitor() *SecurityEventMonitor {
	return &SecurityEventMonitor{
		failedLogins: make(map[string][]time.Time),
		alertedIPs:   make(map[string]time.Time),
		now:          time.Now,
	}
}

// TrackFailedLogin records a failed login from ip and raises an alert once
// the address crosses the threshold inside the window
func (m *SecurityEventMonitor) TrackFailedLogin(ip string) {
	if ip == "" {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	windowStart := now.Add(-failedLoginWindow)
	recent := m.failedLogins[ip][:0]
	for _, t := range m.failedLogins[ip] {
		if t.After(windowStart) {
			recent = append(recent, t)
		}
	}
	recent = append(recent, now)
	m.failedLogins[ip] = recent

	if len(recent) >= failedLoginThreshold {
		m.alertLocked(ip, "Multiple failed logins detected", now)
	}
}

// alertLocked logs an alert, at most once per cooldown per IP
func (m *SecurityEventMonitor) alertLocked(ip, reason string, now time.Time) {
	if last, ok := m.alertedIPs[ip]; ok && now.Sub(last) < alertCooldown {
		return
	}
	m.alertedIPs[ip] = now

	m.alerts = append([]SecurityAlert{{Timestamp: now, IP: ip, Reason: reason, Level: "CRITICAL"}}, m.alerts...)
	if len(m.alerts) > maxAlerts {
		m.alerts = m.alerts[:maxAlerts]
	}
	log.Printf("[SECURITY ALERT] %s from IP: %s", reason, ip)
}

// GetRecentAlerts returns a copy of recent alerts
func (m *SecurityEventMonitor) GetRecentAlerts() []SecurityAlert {
	m.mu.Lock()
	defer m.mu.Unlock()
	alerts := make([]SecurityAlert, len(m.alerts))
	copy(alerts, m.alerts)
	return alerts
}

// Sweep drops stale counters and expired cooldowns. Run by the scheduler.
func (m *SecurityEventMonitor) Sweep() {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	for ip, attempts := range m.failedLogins {
		if len(attempts) == 0 || now.Sub(attempts[len(attempts)-1]) > failedLoginWindow {
			delete(m.failedLogins, ip)
		}
	}
	for ip, last := range m.alertedIPs {
		if now.Sub(last) > alertCooldown {
			delete(m.alertedIPs, ip)
		}
	}
}
