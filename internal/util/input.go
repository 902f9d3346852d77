package util

import (
	"net"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
)

// CleanInput 去掉首尾空白并按字符数截断；结果为空表示无效输入
func CleanInput(value string, maxLength int) string {
	value = strings.TrimSpace(value)
	if utf8.RuneCountInString(value) <= maxLength {
		return value
	}
	runes := []rune(value)
	return string(runes[:maxLength])
}

// ValidIPv4 仅接受点分十进制 IPv4
func ValidIPv4(ip string) bool {
	if ip == "" || strings.Count(ip, ".") != 3 || strings.Contains(ip, ":") {
		return false
	}
	parsed := net.ParseIP(ip)
	return parsed != nil && parsed.To4() != nil
}

// GetClientIP 局域网部署：优先使用服务端看到的地址，本机回环时再参考客户端上报和代理头
func GetClientIP(c *gin.Context) string {
	serverIP := c.Request.RemoteAddr
	if host, _, err := net.SplitHostPort(serverIP); err == nil {
		serverIP = host
	}

	if serverIP != "" && serverIP != "127.0.0.1" && ValidIPv4(serverIP) {
		return serverIP
	}

	if clientIP := c.GetHeader("X-Client-IP"); clientIP != "" && clientIP != "server-detected" && ValidIPv4(clientIP) {
		return clientIP
	}

	if forwarded := c.GetHeader("X-Forwarded-For"); forwarded != "" {
		ip := strings.TrimSpace(strings.Split(forwarded, ",")[0])
		if ValidIPv4(ip) {
			return ip
		}
	}

	if realIP := c.GetHeader("X-Real-IP"); realIP != "" && ValidIPv4(realIP) {
		return realIP
	}

	if serverIP == "" {
		return "unknown"
	}
	return serverIP
}
