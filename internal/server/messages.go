package server

import "modelrelay/internal/llm"

func userMessage(content string) llm.Message {
	return llm.Message{Role: "user", Content: content}
}

func assistantMessage(content string) llm.Message {
	return llm.Message{Role: "assistant", Content: content}
}
