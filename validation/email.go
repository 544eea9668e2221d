package validation

import (
	"regexp"
	"strings"
)

const (
	maxLocalPartLength = 64
	maxLabelLength     = 63
)

var (
	domainLabelPattern = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]*[a-z0-9])?$`)
	tldPattern         = regexp.MustCompile(`^([a-z]{2,}|xn--[a-z0-9-]+)$`)
)

// Webmail domains with provider-specific canonicalization rules.
var (
	gmailDomains = map[string]bool{
		"gmail.com":      true,
		"googlemail.com": true,
	}
	icloudDomains = map[string]bool{
		"icloud.com": true,
		"me.com":     true,
	}
	outlookDomains = map[string]bool{
		"hotmail.at": true, "hotmail.be": true, "hotmail.ca": true, "hotmail.cl": true,
		"hotmail.co.il": true, "hotmail.co.nz": true, "hotmail.co.th": true, "hotmail.co.uk": true,
		"hotmail.com": true, "hotmail.com.ar": true, "hotmail.com.au": true, "hotmail.com.br": true,
		"hotmail.com.gr": true, "hotmail.com.mx": true, "hotmail.com.pe": true, "hotmail.com.tr": true,
		"hotmail.com.vn": true, "hotmail.cz": true, "hotmail.de": true, "hotmail.dk": true,
		"hotmail.es": true, "hotmail.fr": true, "hotmail.hu": true, "hotmail.id": true,
		"hotmail.ie": true, "hotmail.in": true, "hotmail.it": true, "hotmail.jp": true,
		"hotmail.kr": true, "hotmail.lv": true, "hotmail.my": true, "hotmail.ph": true,
		"hotmail.pt": true, "hotmail.sa": true, "hotmail.sg": true, "hotmail.sk": true,
		"live.be": true, "live.co.uk": true, "live.com": true, "live.com.ar": true,
		"live.com.mx": true, "live.de": true, "live.es": true, "live.eu": true,
		"live.fr": true, "live.it": true, "live.nl": true, "msn.com": true,
		"outlook.at": true, "outlook.be": true, "outlook.cl": true, "outlook.co.il": true,
		"outlook.co.nz": true, "outlook.co.th": true, "outlook.com": true, "outlook.com.ar": true,
		"outlook.com.au": true, "outlook.com.br": true, "outlook.com.gr": true, "outlook.com.pe": true,
		"outlook.com.tr": true, "outlook.com.vn": true, "outlook.cz": true, "outlook.de": true,
		"outlook.dk": true, "outlook.es": true, "outlook.fr": true, "outlook.hu": true,
		"outlook.id": true, "outlook.ie": true, "outlook.in": true, "outlook.it": true,
		"outlook.jp": true, "outlook.kr": true, "outlook.lv": true, "outlook.my": true,
		"outlook.ph": true, "outlook.pt": true, "outlook.sa": true, "outlook.sg": true,
		"outlook.sk": true, "passport.com": true,
	}
	yahooDomains = map[string]bool{
		"rocketmail.com": true, "yahoo.ca": true, "yahoo.co.uk": true, "yahoo.com": true,
		"yahoo.de": true, "yahoo.fr": true, "yahoo.in": true, "yahoo.it": true, "ymail.com": true,
	}
	yandexDomains = map[string]bool{
		"yandex.ru": true, "yandex.ua": true, "yandex.kz": true,
		"yandex.com": true, "yandex.by": true, "ya.ru": true,
	}
)

// IsEmail reports whether s is a bare, syntactically valid email address
// (no display name, no surrounding whitespace, dotted domain with an alphabetic TLD).
func IsEmail(s string) bool {
	return validate.Var(s, "required,max=254,email,email_domain") == nil
}

func isValidDomain(domain string) bool {
	labels := strings.Split(domain, ".")
	if len(labels) < 2 {
		return false
	}
	for _, label := range labels {
		if len(label) == 0 || len(label) > maxLabelLength || !domainLabelPattern.MatchString(label) {
			return false
		}
	}
	return tldPattern.MatchString(labels[len(labels)-1])
}

// NormalizeEmail canonicalizes an email address.
// The whole address is lowercased. Gmail addresses lose dots and "+tag" suffixes and
// googlemail.com becomes gmail.com; Outlook and iCloud addresses lose "+tag" suffixes;
// Yahoo addresses lose "-tag" suffixes; Yandex domains collapse to yandex.ru.
// It returns false when nothing is left of the local part.
func NormalizeEmail(email string) (string, bool) {
	at := strings.LastIndex(email, "@")
	if at <= 0 || at == len(email)-1 {
		return "", false
	}
	local := strings.ToLower(email[:at])
	domain := strings.ToLower(email[at+1:])

	switch {
	case gmailDomains[domain]:
		local = stripAfter(local, "+")
		local = strings.ReplaceAll(local, ".", "")
		domain = "gmail.com"
	case icloudDomains[domain], outlookDomains[domain]:
		local = stripAfter(local, "+")
	case yahooDomains[domain]:
		if i := strings.LastIndex(local, "-"); i >= 0 {
			local = local[:i]
		}
	case yandexDomains[domain]:
		domain = "yandex.ru"
	}

	if local == "" {
		return "", false
	}
	return local + "@" + domain, true
}

func stripAfter(s, sep string) string {
	if i := strings.Index(s, sep); i >= 0 {
		return s[:i]
	}
	return s
}
