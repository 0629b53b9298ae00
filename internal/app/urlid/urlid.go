// Package urlid приводит URL к каноническому виду и вычисляет его идентификатор.
//
// Идентификатор — SHA-256 канонической строки в нижнем шестнадцатеричном
// виде. Тот же идентификатор используется как ключ кеша и как id отчёта
// в API репутации.
package urlid

import (
	"crypto/sha256"
	"encoding/hex"
	"net"
	"net/url"
	"strings"

	"golang.org/x/net/idna"
)

// defaultPorts — схемы с иерархическим хостом и их порты по умолчанию
var defaultPorts = map[string]string{
	"http":  "80",
	"https": "443",
	"ws":    "80",
	"wss":   "443",
	"ftp":   "21",
}

// hostProfile повторяет правила браузеров: подчёркивания и дефисы по краям меток допустимы
var hostProfile = idna.New(
	idna.MapForLookup(),
	idna.BidiRule(),
	idna.StrictDomainName(false),
	idna.CheckHyphens(false),
)

// Normalize разбирает и заново собирает URL: пробелы и управляющие символы
// по краям отбрасываются, схема и хост в нижнем регистре, IDN-хост в punycode,
// порт по умолчанию отбрасывается, сегменты "." и ".." пути схлопываются,
// пустой путь заменяется на "/", запрещённые в query символы кодируются.
// Если строку не удаётся разобрать как абсолютный URL, она возвращается без изменений.
func Normalize(raw string) string {
	u, err := url.Parse(clean(raw))
	if err != nil || u.Scheme == "" {
		return raw
	}

	defaultPort, special := defaultPorts[u.Scheme]
	if !special {
		return u.String()
	}

	host := u.Hostname()
	if host == "" {
		return raw
	}

	if strings.Contains(host, ":") {
		ip := net.ParseIP(host)
		if ip == nil {
			return raw
		}
		host = "[" + ip.String() + "]"
	} else {
		host, err = hostProfile.ToASCII(host)
		if err != nil {
			return raw
		}
	}

	if port := u.Port(); port != "" && port != defaultPort {
		host = host + ":" + port
	}
	u.Host = host

	if u.Path == "" && u.RawPath == "" {
		u.Path = "/"
	} else {
		escaped := removeDotSegments(u.EscapedPath())
		if u.Path, err = url.PathUnescape(escaped); err != nil {
			return raw
		}
		u.RawPath = escaped
	}

	u.RawQuery = escapeQuery(u.RawQuery)

	return u.String()
}

// clean отбрасывает пробелы и управляющие символы C0 по краям,
// а табуляции и переводы строк удаляет из любого места строки
func clean(raw string) string {
	trimmed := strings.TrimFunc(raw, func(r rune) bool { return r <= ' ' })
	return strings.Map(func(r rune) rune {
		if r == '\t' || r == '\n' || r == '\r' {
			return -1
		}
		return r
	}, trimmed)
}

// removeDotSegments схлопывает "." и ".." в абсолютном пути (RFC 3986, 5.2.4)
func removeDotSegments(p string) string {
	segments := strings.Split(strings.TrimPrefix(p, "/"), "/")
	out := make([]string, 0, len(segments))
	for i, seg := range segments {
		last := i == len(segments)-1
		switch seg {
		case ".":
			if last {
				out = append(out, "")
			}
		case "..":
			if len(out) > 0 {
				out = out[:len(out)-1]
			}
			if last {
				out = append(out, "")
			}
		default:
			out = append(out, seg)
		}
	}
	return "/" + strings.Join(out, "/")
}

// escapeQuery кодирует в query специальной схемы пробел, управляющие и не-ASCII
// байты, а также " ' < > #. Существующие %XX не меняются
func escapeQuery(q string) string {
	const hexDigits = "0123456789ABCDEF"

	var b strings.Builder
	b.Grow(len(q))
	for i := 0; i < len(q); i++ {
		c := q[i]
		switch {
		case c <= ' ', c >= 0x7f, c == '"', c == '#', c == '<', c == '>', c == '\'':
			b.WriteByte('%')
			b.WriteByte(hexDigits[c>>4])
			b.WriteByte(hexDigits[c&0x0f])
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// Identifier возвращает SHA-256 от нормализованного URL в нижнем hex
func Identifier(normalized string) string {
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}
