// Command tonearm is the CLI for the audio collection triage pipeline:
// scan registers files, run triages them, and the remaining commands
// inspect and correct the results.
package main
