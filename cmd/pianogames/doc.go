// Command pianogames runs the camera and microphone piano games: the
// conductor, the air piano, the singing piano and the mimipiano, plus the web
// front end and a few maintenance commands.
package main
