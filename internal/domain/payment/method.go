package payment

import (
	"fmt"
	"strings"
)

// Method is the tender type accepted at the till.
type Method string

const (
	MethodCash   Method = "cash"
	MethodCard   Method = "card"
	MethodAlipay Method = "alipay"
	MethodWeChat Method = "wechat"
)

// Methods lists the accepted methods in menu order.
func Methods() []Method {
	return []Method{MethodCash, MethodCard, MethodAlipay, MethodWeChat}
}

// ParseMethod normalises free-form input ("  Cash ", "WECHAT") into a Method.
func ParseMethod(s string) (Method, error) {
	m := Method(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Methods() {
		if m == known {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w %q (valid: %s)", ErrInvalidMethod, s, methodList())
}

func (m Method) String() string { return string(m) }

func methodList() string {
	names := make([]string, 0, len(Methods()))
	for _, m := range Methods() {
		names = append(names, string(m))
	}
	return strings.Join(names, ", ")
}
