package handlers

import "studio/internal/genai"

// failureMessages carries the per-category user-facing failure text in every
// supported locale. English is also the fallback for unknown locales.
var failureMessages = map[string]map[genai.ErrorKind]string{
	"en": {
		genai.KindServer:  "server busy or input too complex, retry",
		genai.KindNetwork: "network error, check connection",
		genai.KindAuth:    "invalid or expired credential, reconnect",
		genai.KindQuota:   "rate limited, wait and retry",
		genai.KindEmpty:   "no output produced",
		genai.KindOther:   "generation failed",
	},
	"id": {
		genai.KindServer:  "server sibuk atau input terlalu kompleks, coba lagi",
		genai.KindNetwork: "kesalahan jaringan, periksa koneksi",
		genai.KindAuth:    "kredensial tidak valid atau kedaluwarsa, hubungkan ulang",
		genai.KindQuota:   "terkena batas permintaan, tunggu lalu coba lagi",
		genai.KindEmpty:   "tidak ada keluaran yang dihasilkan",
		genai.KindOther:   "pembuatan gambar gagal",
	},
}

// localizedFailure returns the failure text for the job's error kind in the
// requested locale. An unknown kind keeps the stored message so diagnostics
// from unclassified failures survive.
func localizedFailure(locale, stored string, kind genai.ErrorKind) string {
	table, ok := failureMessages[locale]
	if !ok {
		table = failureMessages["en"]
	}
	if kind == genai.KindOther && stored != "" {
		return stored
	}
	if msg, ok := table[kind]; ok {
		return msg
	}
	return stored
}
