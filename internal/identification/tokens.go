package identification

import (
	"regexp"
	"strings"

	"reelname/internal/language"
)

// tokenClass categorizes filename tokens that never belong to a title.
type tokenClass int

const (
	classNone tokenClass = iota
	classQuality
	classSource
	classCodec
	classAudio
	classEdition
	classRelease
	classLanguage
	classGroup
)

func (c tokenClass) String() string {
	switch c {
	case classQuality:
		return "quality"
	case classSource:
		return "source"
	case classCodec:
		return "codec"
	case classAudio:
		return "audio"
	case classEdition:
		return "edition"
	case classRelease:
		return "release"
	case classLanguage:
		return "language"
	case classGroup:
		return "group"
	default:
		return "title"
	}
}

// tokenTable maps lowercased single tokens to their class. Lookups are
// exact; substrings of title words never match.
var tokenTable = buildTokenTable(map[tokenClass][]string{
	classQuality: {
		"480p", "576p", "720p", "1080p", "1080i", "2160p", "4320p", "4k", "8k", "uhd", "ultrahd",
		"fhd", "hdr", "hdr10", "hdr10+", "hdr10plus", "dv", "dovi", "sdr", "10bit", "8bit", "12bit", "hq",
	},
	classSource: {
		"bluray", "blu-ray", "bdrip", "brrip", "bdremux", "bdrm", "bd25", "bd50", "webrip", "webdl",
		"web-dl", "web-rip", "web", "hdtv", "pdtv", "dsr", "hdrip", "dvdrip", "dvdscr", "dvdr", "dvd5",
		"dvd9", "dvd", "screener", "scr", "cam", "hdcam", "ts", "hdts", "telesync", "tc", "telecine",
		"r5", "remux", "vhsrip", "amzn", "nf", "dsnp", "hmax", "atvp", "pcok", "hulu",
	},
	classCodec: {
		"x264", "x265", "h264", "h265", "hevc", "avc", "xvid", "divx", "vc1", "vc-1", "mpeg2",
		"mpeg4", "av1", "vp9", "264", "265",
	},
	classAudio: {
		"aac", "ac3", "eac3", "dts", "dts-hd", "dtshd", "dtsx", "truehd", "atmos", "flac", "opus",
		"vorbis", "mp3", "aiff", "lpcm", "pcm", "dd", "ddp", "dd5", "ddp5", "dd+", "2ch", "6ch", "8ch",
		"aac2", "aac5",
	},
	classEdition: {
		"extended", "remastered", "unrated", "uncut", "imax", "directorscut", "theatrical",
		"criterion", "proper", "repack", "rerip",
	},
	classRelease: {
		"amd64", "x86_64", "x86", "x64", "scene", "p2p", "nfo", "sample", "subs", "sub", "hardsub",
		"hc", "hardcoded", "readnfo", "retail", "limited", "internal",
	},
	classGroup: {
		"yify", "yts", "rarbg", "sparks", "fgt", "evo", "ettv", "eztv", "ntb", "geckos", "amiable",
		"drones", "tigole", "qxr", "psa", "mkvcage", "ganool", "etrg", "fum", "cmrg", "rovers", "ion10",
		"pahe", "galaxyrg", "tgx", "lama", "framestor", "publichd", "d3g", "axxo", "fxg", "anoxmous",
		"ctrlhd", "ebp", "chd", "hdchina", "mteam", "nogrp", "rartv", "vxt", "mrn", "naisu", "ntg", "kogi",
	},
})

// compoundTable lists token pairs that are only junk when adjacent, keyed as
// "first.second" after separators were turned into spaces ("H.264" arrives
// as "H" "264").
var compoundTable = buildTokenTable(map[tokenClass][]string{
	classCodec:   {"h.264", "h.265", "x.264", "x.265", "vc.1"},
	classSource:  {"web.dl", "web.rip", "blu.ray", "hd.rip", "dvd.rip", "bd.rip", "br.rip", "hd.tv"},
	classAudio:   {"dts.hd", "dts.x", "dts.ma", "true.hd", "dolby.atmos", "dolby.digital", "dd.ex"},
	classEdition: {"directors.cut", "director's.cut", "extended.cut", "extended.edition", "special.edition", "theatrical.cut", "ultimate.edition", "collectors.edition", "unrated.edition"},
	classQuality: {"dolby.vision", "hdr10.plus"},
	classGroup:   {"yts.mx", "yts.am", "yts.lt", "yts.ag"},
})

// channelPattern matches joined audio channel layouts such as "5.1",
// "dd5.1", "aac2.0" or "ddp7.1".
var channelPattern = regexp.MustCompile(`^(?:dd|ddp|dd\+|aac|ac3|eac3|truehd|dts|flac|opus|lpcm|pcm|atmos)?[1-9]\.[01]$`)

// Generic shapes that are never title words.
var (
	resolutionPattern = regexp.MustCompile(`^\d{3,4}[pi]$`)
	bitDepthPattern   = regexp.MustCompile(`^\d{1,2}bits?$`)
	codecPattern      = regexp.MustCompile(`^[xh]\.?26[45]$`)
)

// trailingQualifiers are junk only when they directly follow another junk
// token ("DTS HD MA", "Directors Cut Edition"). On their own they may be
// title words ("Ma", "Cut").
var trailingQualifiers = map[string]struct{}{
	"ma": {}, "hd": {}, "hr": {}, "cut": {}, "edition": {}, "version": {}, "x": {}, "mx": {}, "am": {},
	"rip": {}, "dl": {}, "es": {}, "plus": {},
}

// ambiguousWords belong to a hard class but are also plausible title words
// ("Cam", "Atmos", "Proper"), so they are treated like the soft classes.
var ambiguousWords = map[string]struct{}{
	"web": {}, "dvd": {}, "cam": {}, "ts": {}, "tc": {}, "scr": {}, "screener": {}, "r5": {}, "nf": {},
	"hulu": {}, "dd": {}, "dts": {}, "opus": {}, "flac": {}, "atmos": {}, "dv": {}, "hq": {}, "sdr": {},
	"telecine": {}, "telesync": {}, "remux": {}, "pcm": {}, "mp3": {}, "aiff": {}, "vorbis": {},
}

// hard reports whether a classified token is junk wherever it appears.
// Everything else is junk only inside the trailing junk run of a name.
func (c tokenClass) hard(lower string) bool {
	switch c {
	case classQuality, classSource, classCodec, classAudio:
		_, ambiguous := ambiguousWords[lower]
		return !ambiguous
	default:
		return false
	}
}

func buildTokenTable(src map[tokenClass][]string) map[string]tokenClass {
	out := make(map[string]tokenClass)
	for class, words := range src {
		for _, w := range words {
			out[w] = class
		}
	}
	return out
}

// classifyToken reports the class of a single lowercased token.
func classifyToken(lower string) tokenClass {
	if lower == "" {
		return classNone
	}
	if class, ok := tokenTable[lower]; ok {
		return class
	}
	switch {
	case resolutionPattern.MatchString(lower):
		return classQuality
	case bitDepthPattern.MatchString(lower):
		return classQuality
	case codecPattern.MatchString(lower):
		return classCodec
	case channelPattern.MatchString(lower):
		return classAudio
	}
	if language.IsReleaseToken(lower) {
		return classLanguage
	}
	return classNone
}

// classifyPair reports the class of two adjacent tokens joined as one.
func classifyPair(first, second string) tokenClass {
	joined := first + "." + second
	if class, ok := compoundTable[joined]; ok {
		return class
	}
	if channelPattern.MatchString(joined) {
		return classAudio
	}
	return classNone
}

func isTrailingQualifier(lower string) bool {
	_, ok := trailingQualifiers[strings.TrimSuffix(lower, "'s")]
	return ok
}
