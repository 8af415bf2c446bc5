package formats

const osuBasic = `osu file format v14

[General]
AudioFilename: audio.mp3
PreviewTime: 1000
Mode: 3

[Metadata]
Title:Test Song
TitleUnicode:テストソング
Artist:Test Artist
ArtistUnicode:テストアーティスト
Creator:Mapper
Version:Hard
Source:Game
Tags:jump stream

[Difficulty]
HPDrainRate:8
CircleSize:4
OverallDifficulty:8

[Events]
//Background and Video events
0,0,"bg.png",0,0
Sample,250,0,"clap.wav",60

[TimingPoints]
0,500,4,1,0,100,1,0

[HitObjects]
64,192,0,1,0,0:0:0:0:
192,192,500,1,8,0:0:0:80:
320,192,1000,128,0,1500:0:0:0:0:
`

const smBasic = `#TITLE:Song;
#SUBTITLE:Sub;
#ARTIST:Artist;
#CREDIT:Charter;
#MUSIC:song.ogg;
#OFFSET:-0.100;
#SAMPLESTART:12.5;
#BPMS:0.000=120.000,4.000=240.000;
#STOPS:2.000=0.500;
#NOTES:
     dance-single:
     :
     Challenge:
     10:
     0.000,0.000,0.000,0.000,0.000:
// first measure
1000
0100
0010
0001
,
2000
0000
3000
0000
;
#NOTES:
     dance-single:
     :
     Easy:
     2:
     0.000,0.000,0.000,0.000,0.000:
1000
0000
0000
0000
;
`

const quaBasic = `AudioFile: audio.mp3
SongPreviewTime: 1000
BackgroundFile: bg.png
Mode: Keys4
Title: Song
Artist: Artist
Source: Game
Tags: jump stream
Creator: Mapper
DifficultyName: Hard
BPMDoesNotAffectScrollVelocity: true
InitialScrollVelocity: 1
EditorLayers: []
CustomAudioSamples:
- Path: clap.wav
SoundEffects:
- StartTime: 250
  Sample: 1
  Volume: 60
TimingPoints:
- Bpm: 120
- StartTime: 2000
  Bpm: 60
SliderVelocities:
- StartTime: 1000
  Multiplier: 0.5
- StartTime: 1500
HitObjects:
- Lane: 1
  KeySounds: []
- StartTime: 500
  Lane: 2
  EndTime: 1000
  HitSound: Clap
  KeySounds:
  - Sample: 1
    Volume: 80
- StartTime: 3000
  Lane: 4
  KeySounds: []
`
