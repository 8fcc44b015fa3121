// Package config loads the Settings.ini runtime options and the YAML
// screen layout (fixed tap points and OCR regions).
package config

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/ini.v1"

	"github.com/starrail-auto/moneywar/internal/bot"
)

// LoadFromINI reads Settings.ini into a bot config. Missing keys fall
// back to the shipped defaults, so an empty file is a valid one.
func LoadFromINI(path string) (bot.Config, error) {
	file, err := ini.Load(path)
	if err != nil {
		return bot.Config{}, fmt.Errorf("load settings: %w", err)
	}

	def := bot.DefaultConfig()
	section := file.Section("Bot")

	cfg := bot.Config{
		ADBPath:  section.Key("adbPath").MustString(""),
		DeviceID: section.Key("deviceId").MustString(""),

		TemplateDir: section.Key("templateDir").MustString(def.TemplateDir),
		LayoutPath:  section.Key("layoutPath").MustString(def.LayoutPath),

		Threshold: section.Key("matchThreshold").MustFloat64(def.Threshold),

		OCRLanguage: section.Key("ocrLanguage").MustString(def.OCRLanguage),

		Cycles:       section.Key("cycles").MustInt(0),
		MaxRetries:   section.Key("maxRetries").MustInt(def.MaxRetries),
		StepTimeout:  time.Duration(section.Key("stepTimeoutSec").MustFloat64(def.StepTimeout.Seconds()) * float64(time.Second)),
		PollInterval: time.Duration(section.Key("pollIntervalMs").MustInt(int(def.PollInterval.Milliseconds()))) * time.Millisecond,

		DelayPolicy: section.Key("delayPolicy").MustString(def.DelayPolicy),
		MinDelay:    time.Duration(section.Key("minDelayMs").MustInt(int(def.MinDelay.Milliseconds()))) * time.Millisecond,
		MaxDelay:    time.Duration(section.Key("maxDelayMs").MustInt(int(def.MaxDelay.Milliseconds()))) * time.Millisecond,

		LogLevel: section.Key("logLevel").MustString(def.LogLevel),
	}

	cfg.WinKeywords = splitKeywords(section.Key("winKeywords").MustString(""))
	cfg.LossKeywords = splitKeywords(section.Key("lossKeywords").MustString(""))

	return cfg, nil
}

// SaveToINI writes the config back out, used to seed a fresh install.
func SaveToINI(cfg bot.Config, path string) error {
	file := ini.Empty()
	section := file.Section("Bot")

	section.Key("adbPath").SetValue(cfg.ADBPath)
	section.Key("deviceId").SetValue(cfg.DeviceID)
	section.Key("templateDir").SetValue(cfg.TemplateDir)
	section.Key("layoutPath").SetValue(cfg.LayoutPath)
	section.Key("matchThreshold").SetValue(fmt.Sprintf("%g", cfg.Threshold))
	section.Key("ocrLanguage").SetValue(cfg.OCRLanguage)
	section.Key("cycles").SetValue(fmt.Sprintf("%d", cfg.Cycles))
	section.Key("maxRetries").SetValue(fmt.Sprintf("%d", cfg.MaxRetries))
	section.Key("stepTimeoutSec").SetValue(fmt.Sprintf("%g", cfg.StepTimeout.Seconds()))
	section.Key("pollIntervalMs").SetValue(fmt.Sprintf("%d", cfg.PollInterval.Milliseconds()))
	section.Key("delayPolicy").SetValue(cfg.DelayPolicy)
	section.Key("minDelayMs").SetValue(fmt.Sprintf("%d", cfg.MinDelay.Milliseconds()))
	section.Key("maxDelayMs").SetValue(fmt.Sprintf("%d", cfg.MaxDelay.Milliseconds()))
	section.Key("logLevel").SetValue(cfg.LogLevel)
	if len(cfg.WinKeywords) > 0 {
		section.Key("winKeywords").SetValue(strings.Join(cfg.WinKeywords, ","))
	}
	if len(cfg.LossKeywords) > 0 {
		section.Key("lossKeywords").SetValue(strings.Join(cfg.LossKeywords, ","))
	}

	return file.SaveTo(path)
}

func splitKeywords(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
