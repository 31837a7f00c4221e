package logger

import (
	"io"
	"log"
	"strings"
	"sync"
)

// 中文说明：
// LLM 调用留痕：提示词与原始回复写入独立的 writer（通常是单独的日志文件），
// 与常规运行日志分流。payload 仅在显式开启 dump 时记录。

var (
	llmMu          sync.Mutex
	llmLog         *log.Logger
	llmDumpPayload bool
)

func SetLLMWriter(w io.Writer) {
	llmMu.Lock()
	defer llmMu.Unlock()
	if w == nil {
		llmLog = nil
		return
	}
	llmLog = log.New(w, "", log.LstdFlags)
}

func EnableLLMPayloadDump(enabled bool) {
	llmMu.Lock()
	llmDumpPayload = enabled
	llmMu.Unlock()
}

type llmSection struct {
	Title string
	Body  string
}

func logLLM(kind, provider, model string, sections []llmSection) {
	llmMu.Lock()
	sink := llmLog
	llmMu.Unlock()
	if sink == nil {
		return
	}
	var b strings.Builder
	b.WriteString("[LLM][" + kind + "][" + provider)
	if model != "" {
		b.WriteString(":" + model)
	}
	b.WriteString("]\n")
	for _, sec := range sections {
		b.WriteString("--- " + sec.Title + " ---\n")
		b.WriteString(sec.Body)
		if !strings.HasSuffix(sec.Body, "\n") {
			b.WriteString("\n")
		}
	}
	b.WriteString("=====\n")
	sink.Print(b.String())
}

func LogLLMRequest(provider, model, prompt, payload string) {
	sections := []llmSection{{Title: "PROMPT", Body: prompt}}
	llmMu.Lock()
	dump := llmDumpPayload
	llmMu.Unlock()
	if dump && strings.TrimSpace(payload) != "" {
		sections = append(sections, llmSection{Title: "PAYLOAD", Body: payload})
	}
	logLLM("request", provider, model, sections)
}

func LogLLMResponse(provider, model, raw string) {
	logLLM("response", provider, model, []llmSection{{Title: "RAW", Body: raw}})
}
