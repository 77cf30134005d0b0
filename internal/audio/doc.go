// Package audio holds synthesized speech as 16-bit PCM clips. It reads
// and writes WAV files, joins segment clips and plays clips back through
// the system audio device using oto/v3.
package audio
