// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 UJ Astro

package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ujastro/jewelctl/pkg/microjewel"
)

// Event log entry
type monitorLogEntry struct {
	timestamp time.Time
	message   string
	isError   bool
}

// One polling pass over the device
type monitorSample struct {
	status        microjewel.Status
	resonatorTemp float64
	fetTemp       float64
	bankVoltage   float64
	shotCount     int
	hasTelemetry  bool
}

// Messages
type monitorPollMsg struct {
	sample monitorSample
	err    error
}
type monitorActionMsg struct {
	action string
	err    error
}
type monitorTickMsg time.Time

// TUI model
type monitorModel struct {
	c        *microjewel.Controller
	connInfo string

	spin          spinner.Model
	sample        *monitorSample
	pollErr       error
	eventLog      []monitorLogEntry
	maxLogEntries int
	width         int
	height        int
	quitting      bool
}

func initialMonitorModel(c *microjewel.Controller, connInfo string) monitorModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))

	return monitorModel{
		c:             c,
		connInfo:      connInfo,
		spin:          sp,
		eventLog:      make([]monitorLogEntry, 0),
		maxLogEntries: 100,
		width:         80,
		height:        24,
	}
}

func (m monitorModel) Init() tea.Cmd {
	return tea.Batch(
		m.spin.Tick,
		m.pollCmd(),
		tea.EnterAltScreen,
	)
}

// pollCmd samples status and telemetry off the UI goroutine. The
// transport serializes the exchanges, so a poll and a key action never
// interleave on the wire.
func (m monitorModel) pollCmd() tea.Cmd {
	c := m.c
	return func() tea.Msg {
		status, err := c.Status()
		if err != nil {
			return monitorPollMsg{err: err}
		}

		sample := monitorSample{status: status}
		if v, err := c.ResonatorTemp(); err == nil {
			sample.resonatorTemp = v
			sample.hasTelemetry = true
		}
		if v, err := c.FETTemp(); err == nil {
			sample.fetTemp = v
		}
		if v, err := c.BankVoltage(); err == nil {
			sample.bankVoltage = v
		}
		if n, err := c.SystemShotCount(); err == nil {
			sample.shotCount = n
		}
		return monitorPollMsg{sample: sample}
	}
}

func monitorTickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return monitorTickMsg(t)
	})
}

func (m monitorModel) actionCmd(action string, run func() error) tea.Cmd {
	return func() tea.Msg {
		return monitorActionMsg{action: action, err: run()}
	}
}

func (m monitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "a":
			return m, m.actionCmd("arm", m.c.Arm)
		case "d":
			return m, m.actionCmd("disarm", m.c.Disarm)
		case "f":
			return m, m.actionCmd("fire", m.c.Fire)
		case "x":
			return m, m.actionCmd("emergency stop", m.c.EmergencyStop)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case monitorTickMsg:
		return m, m.pollCmd()

	case monitorPollMsg:
		if msg.err != nil {
			m.pollErr = msg.err
			m.addLogEntry(fmt.Sprintf("POLL FAILED: %v", msg.err), true)
		} else {
			m.pollErr = nil
			m.noteTransitions(msg.sample)
			sample := msg.sample
			m.sample = &sample
		}
		return m, monitorTickCmd()

	case monitorActionMsg:
		if msg.err != nil {
			m.addLogEntry(fmt.Sprintf("%s failed: %v", msg.action, msg.err), true)
		} else {
			m.addLogEntry(msg.action, false)
		}
		// Refresh immediately so the dashboard reflects the action.
		return m, m.pollCmd()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *monitorModel) addLogEntry(message string, isError bool) {
	m.eventLog = append(m.eventLog, monitorLogEntry{
		timestamp: time.Now(),
		message:   message,
		isError:   isError,
	})
	if len(m.eventLog) > m.maxLogEntries {
		m.eventLog = m.eventLog[len(m.eventLog)-m.maxLogEntries:]
	}
}

// noteTransitions logs edges in the status flags so transient events
// survive on screen after the live view has moved on.
func (m *monitorModel) noteTransitions(next monitorSample) {
	if m.sample == nil {
		return
	}
	prev := m.sample.status

	if !prev.LaserActive && next.status.LaserActive {
		m.addLogEntry("emission started", false)
	}
	if prev.LaserActive && !next.status.LaserActive {
		m.addLogEntry("emission stopped", false)
	}
	if !prev.ExternalInterlock && next.status.ExternalInterlock {
		m.addLogEntry("INTERLOCK OPENED", true)
	}
	if !prev.HasFault() && next.status.HasFault() {
		m.addLogEntry("FAULT RAISED", true)
	}
}

func (m monitorModel) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	// Styles
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12")).
		Background(lipgloss.Color("235")).
		Padding(0, 1)

	headerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	labelStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("12")).
		Bold(true)

	valueStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("10"))

	errorStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("9")).
		Bold(true)

	warningStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("11"))

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)

	var s strings.Builder
	s.WriteString(titleStyle.Render("JEWELCTL - LASER MONITOR"))
	s.WriteString("\n")
	s.WriteString(headerStyle.Render(fmt.Sprintf(
		"Connection: %s | a:arm d:disarm f:fire x:estop q:quit", m.connInfo)))
	s.WriteString("\n\n")

	if m.sample == nil {
		if m.pollErr != nil {
			s.WriteString(errorStyle.Render(fmt.Sprintf("✗ Device not responding: %v", m.pollErr)))
		} else {
			s.WriteString(m.spin.View())
			s.WriteString(headerStyle.Render(" Waiting for first status..."))
		}
		s.WriteString("\n")
		return s.String()
	}

	status := m.sample.status

	// Status panel
	statusContent := strings.Builder{}
	armed := valueStyle.Render("DISARMED")
	if status.LaserEnabled {
		armed = warningStyle.Render("ARMED")
	}
	emitting := headerStyle.Render("idle")
	if status.LaserActive {
		emitting = errorStyle.Render("EMITTING " + m.spin.View())
	}
	statusContent.WriteString(fmt.Sprintf("%s %s   %s %s\n",
		labelStyle.Render("Arm state:"), armed,
		labelStyle.Render("Emission:"), emitting,
	))

	interlock := valueStyle.Render("connected")
	if status.ExternalInterlock {
		interlock = errorStyle.Render("DISCONNECTED")
	}
	statusContent.WriteString(fmt.Sprintf("%s %s   %s %s   %s %s\n",
		labelStyle.Render("Interlock:"), interlock,
		labelStyle.Render("Ready to fire:"), valueStyle.Render(fmt.Sprintf("%t", status.ReadyToFire)),
		labelStyle.Render("Power mode:"), valueStyle.Render(status.PowerModeName()),
	))

	if status.HasFault() {
		faults := []string{}
		if status.PowerFailure {
			faults = append(faults, "POWER FAILURE")
		}
		if status.ResonatorOverTemp {
			faults = append(faults, "RESONATOR OVER TEMP")
		}
		if status.ElectricalOverTemp {
			faults = append(faults, "ELECTRICAL OVER TEMP")
		}
		statusContent.WriteString(fmt.Sprintf("%s %s\n",
			labelStyle.Render("Faults:"),
			errorStyle.Render(strings.Join(faults, ", ")),
		))
	}

	if active, elapsed, duration := m.c.FiringSession(); active {
		statusContent.WriteString(fmt.Sprintf("%s %s\n",
			labelStyle.Render("Firing:"),
			warningStyle.Render(fmt.Sprintf("%v / %v", elapsed.Round(time.Millisecond), duration)),
		))
	}

	if m.pollErr != nil {
		statusContent.WriteString(errorStyle.Render(fmt.Sprintf("✗ Last poll failed: %v", m.pollErr)))
		statusContent.WriteString("\n")
	}

	s.WriteString(boxStyle.Render(statusContent.String()))
	s.WriteString("\n\n")

	// Telemetry panel
	if m.sample.hasTelemetry {
		telemetryContent := strings.Builder{}
		telemetryContent.WriteString(fmt.Sprintf("%s %s   %s %s\n",
			labelStyle.Render("Resonator:"), valueStyle.Render(fmt.Sprintf("%.1f°C", m.sample.resonatorTemp)),
			labelStyle.Render("FET:"), valueStyle.Render(fmt.Sprintf("%.1f°C", m.sample.fetTemp)),
		))
		telemetryContent.WriteString(fmt.Sprintf("%s %s   %s %s",
			labelStyle.Render("Bank voltage:"), valueStyle.Render(fmt.Sprintf("%.1f V", m.sample.bankVoltage)),
			labelStyle.Render("Shot count:"), valueStyle.Render(fmt.Sprintf("%d", m.sample.shotCount)),
		))

		s.WriteString(boxStyle.Render(telemetryContent.String()))
		s.WriteString("\n\n")
	}

	// Event log
	s.WriteString(labelStyle.Render("Recent Events:"))
	s.WriteString("\n")

	logHeight := m.height - 14
	if logHeight < 5 {
		logHeight = 5
	}

	logContent := strings.Builder{}
	startIdx := len(m.eventLog) - logHeight
	if startIdx < 0 {
		startIdx = 0
	}

	if len(m.eventLog) == 0 {
		logContent.WriteString(headerStyle.Render("  (no events yet)"))
	} else {
		for i := startIdx; i < len(m.eventLog); i++ {
			entry := m.eventLog[i]
			timestamp := entry.timestamp.Format("15:04:05.000")
			if entry.isError {
				logContent.WriteString(fmt.Sprintf("%s %s\n",
					headerStyle.Render(timestamp),
					errorStyle.Render("✗ "+entry.message),
				))
			} else {
				logContent.WriteString(fmt.Sprintf("%s %s\n",
					headerStyle.Render(timestamp),
					valueStyle.Render("✓ "+entry.message),
				))
			}
		}
	}

	s.WriteString(boxStyle.Width(m.width - 4).Render(logContent.String()))

	return s.String()
}
