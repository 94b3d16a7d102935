package chemjson

//Package chemjson implements serializacion and unserialization of
//sets of mapex molecules, with all their conformations, as streams of
//JSON lines. A stream starts with one Info line describing the molecules,
//followed, for each molecule, by one line per atom, one line per bond and
//one line per atom and conformation with its coordinates.
//Its planned use is passing molecules between mapex commands, and to
//other programs, which can be written in languages other than Go, as
//long as they can read JSON.
