package ui

import (
	"github.com/charmbracelet/lipgloss"
)

const runningIcon = "● "
const pausedIcon = "⏸ "
const finishedIcon = "✓ "
const terminatedIcon = "✗ "

var runningStyle = lipgloss.NewStyle().
	Foreground(lipgloss.AdaptiveColor{Light: "#51bd73", Dark: "#51bd73"})

var pausedStyle = lipgloss.NewStyle().
	Foreground(lipgloss.AdaptiveColor{Light: "#888888", Dark: "#888888"})

var finishedStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("#F0A868"))

var terminatedStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("#de613e"))

var titleStyle = lipgloss.NewStyle().
	Padding(0, 1).
	Bold(true).
	Foreground(lipgloss.AdaptiveColor{Light: "#1a1a1a", Dark: "#dddddd"})

var descStyle = lipgloss.NewStyle().
	Padding(0, 1).
	Foreground(lipgloss.AdaptiveColor{Light: "#A49FA5", Dark: "#777777"})

var selectedStyle = lipgloss.NewStyle().
	Padding(0, 1).
	Background(lipgloss.Color("#dde4f0")).
	Foreground(lipgloss.AdaptiveColor{Light: "#1a1a1a", Dark: "#1a1a1a"})

// Maze glyph styles.
var wallStyle = lipgloss.NewStyle().
	Foreground(lipgloss.AdaptiveColor{Light: "#b0b0b0", Dark: "#444444"})

var corridorStyle = lipgloss.NewStyle().
	Foreground(lipgloss.AdaptiveColor{Light: "#d0d0d0", Dark: "#2a2a2a"})

var checkpointStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("#6fa8dc")).Bold(true)

var bottleneckStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("#de613e")).Bold(true)

var exitStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("#51bd73")).Bold(true)

var ghostStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("#F0A868")).Bold(true)

var ghostPausedStyle = lipgloss.NewStyle().
	Foreground(lipgloss.AdaptiveColor{Light: "#888888", Dark: "#888888"}).Bold(true)

var statusBarStyle = lipgloss.NewStyle().
	Padding(0, 1).
	Foreground(lipgloss.AdaptiveColor{Light: "#A49FA5", Dark: "#777777"})
