package scan

import (
	"fmt"
	"strings"
)

// ErrorCode is an error code reported by the host platform's barcode scanner.
type ErrorCode int

const (
	CodeNotSupportedOnPlatform ErrorCode = 100
	CodeInternalError          ErrorCode = 500
	CodePermissionDenied       ErrorCode = 1000
	CodeNotSupportedOnHardware ErrorCode = 3000
	CodeInvalidArguments       ErrorCode = 4000
	CodeUserCancelled          ErrorCode = 8000
	CodeOperationTimedOut      ErrorCode = 8001
	CodeOldPlatform            ErrorCode = 9000
)

// SDKError is a failed scan as reported by the host.
type SDKError struct {
	Code ErrorCode
}

func (e *SDKError) Error() string {
	return fmt.Sprintf("scan failed with code %d: %s", e.Code, Describe(e.Code, LocaleEnglish))
}

// Locale names a message table.
type Locale string

const (
	LocaleEnglish Locale = "en"
	LocaleChinese Locale = "zh-CN"
)

type catalog struct {
	codes       map[ErrorCode]string
	unknown     string
	errorPrefix string
	scanPrefix  string
}

var catalogs = map[Locale]catalog{
	LocaleEnglish: {
		codes: map[ErrorCode]string{
			CodeNotSupportedOnPlatform: "platform not supported",
			CodeInternalError:          "internal error",
			CodePermissionDenied:       "insufficient permission, user did not accept",
			CodeNotSupportedOnHardware: "hardware not supported",
			CodeInvalidArguments:       "invalid parameters",
			CodeUserCancelled:          "user cancelled",
			CodeOperationTimedOut:      "user operation timed out",
			CodeOldPlatform:            "platform too old",
		},
		unknown:     "unknown error",
		errorPrefix: "error occurred: ",
		scanPrefix:  "scan succeeded: ",
	},
	LocaleChinese: {
		codes: map[ErrorCode]string{
			CodeNotSupportedOnPlatform: "平台不支持",
			CodeInternalError:          "内部错误",
			CodePermissionDenied:       "权限不足，用户没有接受",
			CodeNotSupportedOnHardware: "硬件不支持",
			CodeInvalidArguments:       "错误的参数",
			CodeUserCancelled:          "用户取消操作",
			CodeOperationTimedOut:      "用户操作超时",
			CodeOldPlatform:            "平台太老",
		},
		unknown:     "未知错误",
		errorPrefix: "发生错误:",
		scanPrefix:  "扫码成功:",
	},
}

// ParseLocale maps a language tag such as "zh", "zh-CN" or "en-US" to a
// supported locale, or returns fallback.
func ParseLocale(tag string, fallback Locale) Locale {
	lang := strings.ToLower(strings.TrimSpace(tag))
	if i := strings.IndexAny(lang, "-_"); i >= 0 {
		lang = lang[:i]
	}
	switch lang {
	case "zh":
		return LocaleChinese
	case "en":
		return LocaleEnglish
	}
	return fallback
}

func lookupCatalog(locale Locale) catalog {
	if c, ok := catalogs[locale]; ok {
		return c
	}
	return catalogs[LocaleEnglish]
}

// Describe maps an error code to its human-readable message. Unlisted codes
// map to the locale's "unknown error". Unknown locales fall back to English.
func Describe(code ErrorCode, locale Locale) string {
	c := lookupCatalog(locale)
	if msg, ok := c.codes[code]; ok {
		return msg
	}
	return c.unknown
}

// ErrorMessage is the transient message shown for a failed scan.
func ErrorMessage(code ErrorCode, locale Locale) string {
	return lookupCatalog(locale).errorPrefix + Describe(code, locale)
}

// SuccessMessage is the transient message shown for a decoded barcode.
func SuccessMessage(decoded string, locale Locale) string {
	return lookupCatalog(locale).scanPrefix + decoded
}

// KnownCodes returns the documented codes in ascending order.
func KnownCodes() []ErrorCode {
	return []ErrorCode{
		CodeNotSupportedOnPlatform,
		CodeInternalError,
		CodePermissionDenied,
		CodeNotSupportedOnHardware,
		CodeInvalidArguments,
		CodeUserCancelled,
		CodeOperationTimedOut,
		CodeOldPlatform,
	}
}
