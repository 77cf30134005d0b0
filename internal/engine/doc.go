// Package engine adapts text-to-speech backends to a common interface.
//
// An Engine is loaded once, which may take minutes for local neural
// models, and then synthesizes text into audio clips. Engines come in
// two selection styles: multi-speaker engines pick a voice by speaker id,
// voice-cloning engines condition on a reference recording.
//
// Supported backends are Piper, Coqui TTS (VCTK and XTTS-v2 models),
// Google Cloud Text-to-Speech, the OpenAI speech API, an arbitrary
// command-line synthesizer (used for Kokoro voices) and a mock engine
// that produces deterministic tones.
package engine
